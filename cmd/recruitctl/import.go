package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recruitops-api/internal/models"
)

// importSummary is what `recruitctl import` prints
type importSummary struct {
	RunID         string                    `json:"runId"`
	SpreadsheetID string                    `json:"spreadsheetId"`
	Stale         bool                      `json:"stale"`
	Counts        map[models.EntityKind]int `json:"counts"`
	Tabs          []models.TabResult        `json:"tabs"`
	Persistence   []models.PersistResult    `json:"persistence"`
}

func summarize(r *models.ImportResult) importSummary {
	counts := make(map[models.EntityKind]int, len(models.Kinds))
	for _, k := range models.Kinds {
		counts[k] = r.Count(k)
	}
	return importSummary{
		RunID:         r.RunID,
		SpreadsheetID: r.SpreadsheetID,
		Stale:         r.Stale,
		Counts:        counts,
		Tabs:          r.Tabs,
		Persistence:   r.Persistence,
	}
}

func newImportCmd(c *cli) *cobra.Command {
	var spreadsheetID string

	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Run one import of a stored source and print a JSON summary",
		Example: `  recruitctl import --spreadsheet-id 1AbC...xyz`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			if c.cfg.Scheduler.RunTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.cfg.Scheduler.RunTimeout)
				defer cancel()
			}

			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			services, cleanup, err := c.services(ctx, db)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := services.Import.Import(ctx, spreadsheetID, models.TriggerCLI)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summarize(result))
		},
	}

	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet-id", "", "id of a source saved with PUT /v1/sources")
	_ = cmd.MarkFlagRequired("spreadsheet-id")
	return cmd
}

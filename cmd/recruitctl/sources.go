package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/recruitops-api/internal/models"
	"github.com/recruitops-api/internal/repository"
)

func newSourcesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect stored spreadsheet sources",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored sources and their refresh policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			sources, err := repository.New(db).Sources.List(cmd.Context())
			if err != nil {
				return err
			}
			return printSources(cmd, sources, c.cfg.Scheduler.MinInterval)
		},
	})
	return cmd
}

func printSources(cmd *cobra.Command, sources []*models.SourceConfig, floor time.Duration) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SPREADSHEET\tAUTH\tAUTO REFRESH\tINTERVAL\tLAST RUN")
	for _, s := range sources {
		auth := "export"
		switch {
		case s.HasCredential():
			auth = "credential"
		case s.HasAPIKey():
			auth = "api key"
		}

		interval := "-"
		if s.AutoRefresh {
			interval = s.RefreshInterval(floor).String()
		}

		lastRun := "never"
		if s.LastRunAt != nil {
			lastRun = s.LastRunAt.Format(time.RFC3339)
		}

		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n", s.SpreadsheetID, auth, s.AutoRefresh, interval, lastRun)
	}
	return w.Flush()
}

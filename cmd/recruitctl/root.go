package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/recruitops-api/internal/cache"
	"github.com/recruitops-api/internal/config"
	"github.com/recruitops-api/internal/database"
	"github.com/recruitops-api/internal/repository"
	"github.com/recruitops-api/internal/service"
	"github.com/recruitops-api/internal/sheets"
	"github.com/recruitops-api/pkg/logger"
)

// cli carries what every subcommand needs once the root command has run
type cli struct {
	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "recruitctl",
		Short:        "Operate the RecruitOps spreadsheet import pipeline",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c.cfg = cfg
			// Logs go to stderr so stdout stays machine readable
			c.log = logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format == "pretty")
			return nil
		},
	}

	root.AddCommand(
		newImportCmd(c),
		newSourcesCmd(c),
		newMigrateCmd(c),
	)
	return root
}

// openDB connects to Postgres without touching the schema
func (c *cli) openDB() (*database.DB, error) {
	return database.New(&c.cfg.Database, c.log)
}

// services wires the import pipeline the same way the server does, minus the scheduler start
func (c *cli) services(ctx context.Context, db *database.DB) (*service.Services, func(), error) {
	results, err := cache.New(c.cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}
	if r, ok := results.(*cache.Redis); ok {
		cleanup = func() { r.Close() }
		if err := r.Ping(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Redis unreachable, continuing without stale fallback")
		}
	}

	var credential []byte
	if path := c.cfg.Sheets.CredentialsFile; path != "" {
		credential, err = os.ReadFile(path)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
	}

	fetcher := sheets.NewDefaultChain(c.cfg.Sheets, credential, c.log)
	return service.NewServices(repository.New(db), fetcher, results, c.cfg, c.log), cleanup, nil
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/recruitops-api/internal/database"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "migrations directory (defaults to MIGRATIONS_PATH)")

	// withDB opens the database, runs fn against the resolved migrations path and closes it
	withDB := func(fn func(db *database.DB, path string) error) error {
		if path == "" {
			path = c.cfg.Database.MigrationsPath
		}
		db, err := c.openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(db, path)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(func(db *database.DB, path string) error {
					return db.RunMigrations(path)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(func(db *database.DB, path string) error {
					return db.MigrateDown(path)
				})
			},
		},
		&cobra.Command{
			Use:   "goto VERSION",
			Short: "Migrate up or down to an exact version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := parseVersion(args[0])
				if err != nil {
					return err
				}
				return withDB(func(db *database.DB, path string) error {
					return db.MigrateToVersion(path, version)
				})
			},
		},
	)
	return cmd
}

func parseVersion(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid migration version %q", s)
	}
	return uint(v), nil
}

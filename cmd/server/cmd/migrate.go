package cmd

import (
	"fmt"

	"github.com/campusconnect/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var (
	migrationsPath string
	migrateSteps   int
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
		Long: `Apply or roll back the PostgreSQL schema for events and users.

Only DATABASE_URL is required.

Examples:
  server migrate up
  server migrate down --steps 1
  server migrate version`,
	}
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", postgres.DefaultMigrationsPath, "directory holding migration files")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(url, migrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if migrateSteps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			url, err := databaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(url, migrationsPath, migrateSteps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", migrateSteps)
			return nil
		},
	}
	down.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := databaseURL()
			if err != nil {
				return err
			}
			v, dirty, err := postgres.MigrationVersion(url, migrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d (dirty: %t)\n", v, dirty)
			return nil
		},
	}

	migrateCmd.AddCommand(up, down, version)
	return migrateCmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/helpinghands/helpinghands/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Manage the database schema.

Without a subcommand every pending migration is applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrateUp(cmd)
	},
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrateUp(cmd)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations",
	Long: `Roll back migrations.

Example:
  helpinghands migrate down      # roll back 1 migration
  helpinghands migrate down 3    # roll back 3 migrations`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}
		return withMigrator(func(m *db.Migrator) error {
			if err := m.Down(steps); err != nil {
				return err
			}
			cmd.Printf("Rolled back %d migration(s).\n", steps)
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *db.Migrator) error {
			version, dirty, ok, err := m.Version()
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("No migrations applied.")
				return nil
			}
			cmd.Printf("Version: %d\n", version)
			if dirty {
				cmd.Println("Status: dirty (a migration failed part way, fix it and force the version)")
			} else {
				cmd.Println("Status: clean")
			}
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func migrateUp(cmd *cobra.Command) error {
	return withMigrator(func(m *db.Migrator) error {
		changed, err := m.Up()
		if err != nil {
			return err
		}
		if changed {
			cmd.Println("Migrations applied.")
		} else {
			cmd.Println("No migrations to apply.")
		}
		return nil
	})
}

func withMigrator(fn func(*db.Migrator) error) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	m, err := db.NewMigrator(conn)
	if err != nil {
		conn.Close()
		return err
	}
	defer m.Close()
	return fn(m)
}

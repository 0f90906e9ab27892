package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helpinghands/helpinghands/internal/db"
	"github.com/helpinghands/helpinghands/internal/infra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and backing services",
	Long: `Validate configuration and backing services.

Loads the environment, then pings PostgreSQL and Redis when they are
configured. Exits non-zero on the first failure.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := setup()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cmd.Printf("Config OK (env=%s, debug=%t)\n", cfg.AppEnv, cfg.Debug)

		if cfg.DatabaseURL == "" {
			cmd.Println("PostgreSQL: not configured, in-memory stores will be used")
		} else {
			conn, err := db.Open(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.Ping(cmd.Context(), conn); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			cmd.Println("PostgreSQL: OK")
		}

		cache, err := infra.NewRedisClient(cmd.Context(), cfg.RedisURL)
		if err != nil {
			return err
		}
		if cache == nil {
			cmd.Println("Redis: not configured")
		} else {
			cache.Close()
			cmd.Println("Redis: OK")
		}
		cmd.Println("System check identified no issues.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

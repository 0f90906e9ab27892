package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/helpinghands/helpinghands/internal/config"
	"github.com/helpinghands/helpinghands/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "helpinghands",
	Short: "HelpingHands volunteer matching service",
	Long: `HelpingHands connects persons in need with corporate volunteers.

Run "helpinghands serve" to start the API, or use the management
commands to migrate, check, flush and seed the database.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// setup loads configuration and builds the logger shared by every command.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.LogLevel), nil
}

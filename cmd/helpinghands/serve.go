package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/helpinghands/helpinghands/internal/db"
	"github.com/helpinghands/helpinghands/internal/infra"
	"github.com/helpinghands/helpinghands/internal/server"
)

var serveNoMigrate bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"runserver"},
	Short:   "Run the HTTP API",
	Long: `Run the HTTP API.

Pending migrations are applied first unless --no-migrate is given. Without
DATABASE_URL in a development environment the API runs on in-memory stores.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var pool *pgxpool.Pool
		if cfg.DatabaseURL != "" {
			if !serveNoMigrate {
				changed, err := db.MigrateUp(cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				logger.Info("migrations applied", "changed", changed)
			}
			if pool, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			defer pool.Close()
		} else {
			logger.Warn("DATABASE_URL not set, using in-memory stores")
		}

		var cache *redis.Client
		if cache, err = infra.NewRedisClient(ctx, cfg.RedisURL); err != nil {
			return err
		}
		if cache != nil {
			defer func() {
				if err := cache.Close(); err != nil {
					logger.Warn("close redis", "error", err)
				}
			}()
		}

		srv, err := server.New(ctx, cfg, pool, cache, logger)
		if err != nil {
			return fmt.Errorf("build server: %w", err)
		}

		runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		srvErrCh := make(chan error, 1)
		go func() {
			srvErrCh <- srv.Listen(runCtx)
		}()
		logger.Info("listening", "addr", cfg.Address(), "env", cfg.AppEnv)

		select {
		case <-runCtx.Done():
			logger.Info("shutdown signal received")
		case err := <-srvErrCh:
			return err
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server exited cleanly")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "skip applying pending migrations")
	rootCmd.AddCommand(serveCmd)
}

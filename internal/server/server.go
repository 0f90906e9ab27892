package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/helpinghands/helpinghands/internal/config"
	"github.com/helpinghands/helpinghands/internal/matching"
	"github.com/helpinghands/helpinghands/internal/middleware"
	"github.com/helpinghands/helpinghands/internal/routes"
	"github.com/helpinghands/helpinghands/internal/storage"
)

// Server wraps the Fiber application, the domain services and the
// background offer sweeper.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	services *routes.Services
	sweeper  *matching.Sweeper
}

// New wires services on db (in-memory when nil) and delegates route wiring
// to routes.Setup.
func New(ctx context.Context, cfg config.Config, db *pgxpool.Pool, cache *redis.Client, log *slog.Logger) (*Server, error) {
	services, err := routes.NewServices(ctx, cfg, db, log)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.AppName,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		BodyLimit:             storage.MaxReceiptSize + 1<<20,
		DisableStartupMessage: !cfg.Debug,
		ErrorHandler:          ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.AllowedHosts(cfg.AllowedHosts))
	if cfg.Debug {
		// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(log))

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: log, Services: services}); err != nil {
		return nil, err
	}

	return &Server{
		app:      app,
		cfg:      cfg,
		services: services,
		sweeper:  matching.NewSweeper(services.Matching, cfg.SweepInterval, log),
	}, nil
}

// App exposes the Fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Services returns the wired domain services.
func (s *Server) Services() *routes.Services { return s.services }

// Listen starts the dormant queue sweeper and serves HTTP until shutdown.
func (s *Server) Listen(ctx context.Context) error {
	s.sweeper.Start(ctx)
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops the sweeper and gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sweeper.Stop()
	return s.app.ShutdownWithContext(ctx)
}

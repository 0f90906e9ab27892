package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/admin"
	"github.com/helpinghands/helpinghands/internal/auth"
	"github.com/helpinghands/helpinghands/internal/chat"
	"github.com/helpinghands/helpinghands/internal/claims"
	"github.com/helpinghands/helpinghands/internal/config"
	"github.com/helpinghands/helpinghands/internal/csr"
	"github.com/helpinghands/helpinghands/internal/cv"
	"github.com/helpinghands/helpinghands/internal/flags"
	"github.com/helpinghands/helpinghands/internal/matching"
	"github.com/helpinghands/helpinghands/internal/middleware"
	"github.com/helpinghands/helpinghands/internal/pin"
	"github.com/helpinghands/helpinghands/internal/requests"
)

const loginAttemptsPerMinute = 5

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Services *Services
}

// Setup configures the API middlewares and every application route.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Services == nil {
		return fmt.Errorf("services are required")
	}
	s := d.Services

	RegisterHealthRoutes(app, d)

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	session := middleware.Session(s.Auth)
	RegisterAuthRoutes(api, auth.NewHandler(s.Auth, !d.Cfg.IsDev()), middleware.LoginRateLimit(d.Cache, loginAttemptsPerMinute), session)

	// guard authenticates the caller, checks the role and, with Redis
	// configured, replays repeated writes per user.
	guard := func(roles ...accounts.Role) []fiber.Handler {
		hs := []fiber.Handler{session, middleware.RequireRole(roles...)}
		if d.Cache != nil {
			hs = append(hs, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
		}
		return hs
	}

	chatHandler := chat.NewHandler(s.Chat)
	claimHandler := claims.NewHandler(s.Claims)
	matchHandler := matching.NewHandler(s.Matching)
	flagHandler := flags.NewHandler(s.Flags)

	RegisterPINRoutes(api.Group("/pin", guard(accounts.RolePIN)...),
		requests.NewHandler(s.Requests), pin.NewHandler(s.PIN), claimHandler)
	RegisterCVRoutes(api.Group("/cv", guard(accounts.RoleCV)...),
		cv.NewHandler(s.CV, s.Safety), claimHandler, matchHandler)
	RegisterCSRRoutes(api.Group("/csr", guard(accounts.RoleCSR)...),
		csr.NewHandler(s.CSR), matchHandler, claimHandler, flagHandler)
	RegisterAdminRoutes(api.Group("/admin", guard(accounts.RoleAdmin)...),
		admin.NewHandler(s.Admin), flagHandler)
	RegisterChatRoutes(api.Group("/chats", guard(accounts.RolePIN, accounts.RoleCV)...),
		api.Group("/requests", guard(accounts.RolePIN, accounts.RoleCV)...), chatHandler)

	return nil
}

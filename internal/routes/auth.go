package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
)

// RegisterAuthRoutes wires login, logout and the current user endpoint.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, session fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Get("/me", session, h.Me)
	group.Post("/logout", session, h.Logout)
}

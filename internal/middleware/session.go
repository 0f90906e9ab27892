package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/accounts"
	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/auth"
)

// Session resolves the caller from the session cookie or a bearer token and
// rejects anonymous requests.
func Session(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := sessionToken(c)
		if token == "" {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		p, err := svc.Verify(c.UserContext(), token)
		if errors.Is(err, apperr.ErrUnauthorized) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		if err != nil {
			return err
		}
		auth.WithPrincipal(c, p)
		return c.Next()
	}
}

// RequireRole lets the request through only when the caller holds one of roles.
func RequireRole(roles ...accounts.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := auth.PrincipalFrom(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "authentication required")
		}
		for _, r := range roles {
			if p.Role == r {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "Forbidden")
	}
}

func sessionToken(c *fiber.Ctx) string {
	authz := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[len("Bearer "):])
	}
	return c.Cookies(auth.SessionCookie)
}

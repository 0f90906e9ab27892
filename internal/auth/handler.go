package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the session token.
const SessionCookie = "session"

const principalKey = "principal"

// Handler exposes auth endpoints for login/me/logout.
type Handler struct {
	svc          *Service
	secureCookie bool
}

// NewHandler builds the auth handler. secureCookie marks the session cookie
// as HTTPS only.
func NewHandler(svc *Service, secureCookie bool) *Handler {
	return &Handler{svc: svc, secureCookie: secureCookie}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type loginResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Redirect  string    `json:"redirect"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login validates credentials, sets the session cookie and returns the
// landing page for the user's role.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(http.StatusOK).JSON(loginResponse{
		UserID:    sess.User.ID,
		Role:      string(sess.User.Role),
		Redirect:  sess.User.Role.HomePath(),
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
	})
}

// Me describes the logged in user.
func (h *Handler) Me(c *fiber.Ctx) error {
	p, ok := PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	user, err := h.svc.Me(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"id":               user.ID,
		"username":         user.Username,
		"email":            user.Email,
		"role":             user.Role,
		"is_authenticated": true,
	})
}

// Logout invalidates existing sessions by bumping the token version.
func (h *Handler) Logout(c *fiber.Ctx) error {
	p, ok := PrincipalFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.svc.Logout(c.UserContext(), p.UserID); err != nil {
		return err
	}
	c.ClearCookie(SessionCookie)
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out", "redirect": "/login/"})
}

// WithPrincipal stores p on the request context.
func WithPrincipal(c *fiber.Ctx, p Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFrom returns the caller stored by the session middleware.
func PrincipalFrom(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(principalKey).(Principal)
	return p, ok && p.UserID != ""
}

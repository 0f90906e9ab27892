package pin

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
	"github.com/helpinghands/helpinghands/internal/profiles"
)

// Handler exposes the PIN profile and password endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the PIN account handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type confirmProfileRequest struct {
	Code string `json:"code"`
	profiles.PINUpdate
}

type confirmPasswordRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) Profile(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.svc.Profile(c.UserContext(), p.ProfileID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) StartProfileUpdate(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	t, err := h.svc.StartProfileUpdate(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (h *Handler) ConfirmProfileUpdate(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	var req confirmProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	out, err := h.svc.ConfirmProfileUpdate(c.UserContext(), p.UserID, p.ProfileID, req.Code, req.PINUpdate)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) StartPasswordChange(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	t, err := h.svc.StartPasswordChange(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(t)
}

func (h *Handler) ConfirmPasswordChange(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	var req confirmPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.ConfirmPasswordChange(c.UserContext(), p.UserID, req.Code, req.NewPassword); err != nil {
		return err
	}
	c.ClearCookie(auth.SessionCookie)
	return c.JSON(fiber.Map{"changed": true, "redirect": "/login/"})
}

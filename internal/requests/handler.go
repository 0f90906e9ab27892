package requests

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
)

// Handler exposes the PIN request endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the request handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Submit raises a request for the calling PIN.
func (h *Handler) Submit(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	var in SubmitInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	req, err := h.svc.Submit(c.UserContext(), p.ProfileID, in)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(req)
}

// List returns the calling PIN's requests, optionally filtered by ?status=.
func (h *Handler) List(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.svc.ListForPIN(c.UserContext(), p.ProfileID, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

package csr

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
)

// Handler exposes the CSR workspace endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the CSR handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.svc.Dashboard(c.UserContext(), p.ProfileID, p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) Pool(c *fiber.Ctx) error {
	out, err := h.svc.Pool(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) AddShortlist(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	item, err := h.svc.AddShortlist(c.UserContext(), p.ProfileID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(item)
}

func (h *Handler) RemoveShortlist(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	removed, err := h.svc.RemoveShortlist(c.UserContext(), p.ProfileID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func (h *Handler) Shortlist(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	items, err := h.svc.Shortlist(c.UserContext(), p.ProfileID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *Handler) Commit(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	r, err := h.svc.Commit(c.UserContext(), p.ProfileID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": r.ID, "status": r.Status})
}

func (h *Handler) Committed(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	items, err := h.svc.Committed(c.UserContext(), p.ProfileID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *Handler) Notifications(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	items, err := h.svc.Notifications(c.UserContext(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

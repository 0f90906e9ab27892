package flags

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
)

// Handler exposes flag endpoints for PAs and CSRs.
type Handler struct {
	svc *Service
}

// NewHandler builds the flag handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type resolveRequest struct {
	Notes string `json:"resolution_notes" form:"resolution_notes"`
}

type flagRequest struct {
	Reason string `json:"reason" form:"reason"`
}

// List returns flags filtered by resolved, flag_type, from and to.
func (h *Handler) List(c *fiber.Ctx) error {
	filter := ParseFilter(c.Query("resolved"), c.Query("flag_type"), c.Query("from"), c.Query("to"))
	views, err := h.svc.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// Accept resolves a flag in the request's favour.
func (h *Handler) Accept(c *fiber.Ctx) error {
	return h.resolve(c, false)
}

// Reject resolves a flag against the request. Notes are mandatory.
func (h *Handler) Reject(c *fiber.Ctx) error {
	return h.resolve(c, true)
}

func (h *Handler) resolve(c *fiber.Ctx, reject bool) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "Flag not found.")
	}
	var req resolveRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	p, _ := auth.PrincipalFrom(c)

	var f Flag
	if reject {
		if strings.TrimSpace(req.Notes) == "" {
			return fiber.NewError(http.StatusBadRequest, "resolution_notes is required to reject.")
		}
		f, err = h.svc.Reject(c.UserContext(), id, p.ProfileID, req.Notes)
	} else {
		f, err = h.svc.Accept(c.UserContext(), id, p.ProfileID, req.Notes)
	}
	if err != nil {
		return err
	}
	view, err := h.svc.View(c.UserContext(), f)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// FlagRequest lets a CSR flag a request for review.
func (h *Handler) FlagRequest(c *fiber.Ctx) error {
	var req flagRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	p, _ := auth.PrincipalFrom(c)
	f, err := h.svc.ManualFlag(c.UserContext(), c.Params("id"), p.ProfileID, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(f)
}

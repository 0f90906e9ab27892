package matching

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
)

// Handler exposes matching to CSRs and to the CVs receiving offers.
type Handler struct {
	svc *Service
}

// NewHandler builds the matching handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type setPoolRequest struct {
	CVIDs []string `json:"cv_ids"`
}

type sendOffersRequest struct {
	TimeoutMinutes *int `json:"timeout_minutes"`
}

type decisionRequest struct {
	Accepted *bool `json:"accepted"`
}

func (h *Handler) Suggest(c *fiber.Ctx) error {
	out, err := h.svc.Suggest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"suggestions": out})
}

func (h *Handler) GetPool(c *fiber.Ctx) error {
	pool, err := h.svc.GetPool(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(pool)
}

func (h *Handler) SetPool(c *fiber.Ctx) error {
	var req setPoolRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	pool, err := h.svc.SetPool(c.UserContext(), c.Params("id"), req.CVIDs)
	if err != nil {
		return err
	}
	return c.JSON(pool)
}

func (h *Handler) SendOffers(c *fiber.Ctx) error {
	var req sendOffersRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	timeout := DefaultOfferTimeout
	if req.TimeoutMinutes != nil {
		if *req.TimeoutMinutes < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "timeout_minutes must be at least 1")
		}
		timeout = time.Duration(*req.TimeoutMinutes) * time.Minute
	}
	q, err := h.svc.SendOffers(c.UserContext(), c.Params("id"), timeout)
	if err != nil {
		return err
	}
	return c.JSON(q)
}

// Decide records a decision on behalf of the CV named in the path.
func (h *Handler) Decide(c *fiber.Ctx) error {
	return h.decide(c, c.Params("cv"))
}

// DecideOwn records the calling CV's own decision.
func (h *Handler) DecideOwn(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	return h.decide(c, p.ProfileID)
}

func (h *Handler) decide(c *fiber.Ctx, cvID string) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil || req.Accepted == nil {
		return fiber.NewError(fiber.StatusBadRequest, "accepted is required")
	}
	r, err := h.svc.Decide(c.UserContext(), c.Params("id"), cvID, *req.Accepted)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": r.ID, "status": r.Status, "cv_id": r.CVID})
}

func (h *Handler) Sweep(c *fiber.Ctx) error {
	n, err := h.svc.SweepDormant(c.UserContext(), time.Now().UTC())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"auto_advanced": n})
}

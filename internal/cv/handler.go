package cv

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
	"github.com/helpinghands/helpinghands/internal/safety"
)

// Handler exposes the CV request list and safety tips.
type Handler struct {
	svc    *Service
	safety *safety.Service
}

// NewHandler builds the CV handler.
func NewHandler(svc *Service, tips *safety.Service) *Handler {
	return &Handler{svc: svc, safety: tips}
}

func (h *Handler) Requests(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.svc.ListRequests(c.UserContext(), p.ProfileID, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) SafetyTips(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.safety.Tips(c.UserContext(), p.ProfileID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

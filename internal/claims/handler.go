package claims

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
)

// Handler exposes claim endpoints for CVs, PINs and CSRs.
type Handler struct {
	svc *Service
}

// NewHandler builds the claim handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Report accepts a multipart claim with a "receipt" file from the assigned CV.
func (h *Handler) Report(c *fiber.Ctx) error {
	var in ReportInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	// A missing or unreadable upload leaves receipt nil and is rejected below.
	var receipt *Receipt
	if fh, err := c.FormFile("receipt"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		defer f.Close()
		receipt = &Receipt{Filename: fh.Filename, ContentType: fh.Header.Get(fiber.HeaderContentType), Body: f}
	}
	p, _ := auth.PrincipalFrom(c)
	claim, err := h.svc.Report(c.UserContext(), p.ProfileID, c.Params("id"), in, receipt)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(claim)
}

// ListForPIN returns the caller's completed requests with claims and disputes.
func (h *Handler) ListForPIN(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.svc.CompletedForPIN(c.UserContext(), p.ProfileID)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Verify marks a claim verified by the PIN.
func (h *Handler) Verify(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	claim, err := h.svc.Verify(c.UserContext(), p.ProfileID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "status": claim.Status})
}

type disputeRequest struct {
	Reason  string `json:"reason" form:"reason"`
	Comment string `json:"comment" form:"comment"`
}

// Dispute records the PIN's objection to a claim.
func (h *Handler) Dispute(c *fiber.Ctx) error {
	var req disputeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, _ := auth.PrincipalFrom(c)
	if _, err := h.svc.Dispute(c.UserContext(), p.ProfileID, c.Params("id"), req.Reason, req.Comment); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ok": true})
}

// Completed lists every completed request that carries claims.
func (h *Handler) Completed(c *fiber.Ctx) error {
	out, err := h.svc.CompletedWithClaims(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// ForRequest lists the claims of one request.
func (h *Handler) ForRequest(c *fiber.Ctx) error {
	out, err := h.svc.ForRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

type decisionRequest struct {
	Action string `json:"action" form:"action"`
}

// Decide reimburses or rejects a claim.
func (h *Handler) Decide(c *fiber.Ctx) error {
	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, _ := auth.PrincipalFrom(c)
	claim, err := h.svc.Decide(c.UserContext(), p.ProfileID, c.Params("id"), req.Action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": claim.ID, "status": claim.Status})
}

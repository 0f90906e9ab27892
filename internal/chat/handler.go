package chat

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/auth"
)

// Handler exposes chats to the PIN and CV of a request.
type Handler struct {
	svc *Service
}

// NewHandler builds the chat handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type sendRequest struct {
	Body string `json:"body" form:"body"`
}

func (h *Handler) MyChats(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.svc.MyChats(c.UserContext(), p, c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) ForRequest(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	room, _, err := h.svc.GetOrCreate(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

func (h *Handler) Messages(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	out, err := h.svc.Messages(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) Send(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	m, err := h.svc.Send(c.UserContext(), p, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *Handler) Complete(c *fiber.Ctx) error {
	p, _ := auth.PrincipalFrom(c)
	r, err := h.svc.Complete(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"request_id": r.ID, "status": r.Status, "completed_at": r.CompletedAt})
}

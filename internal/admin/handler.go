package admin

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the admin dashboard endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the admin handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Metrics(c *fiber.Ctx) error {
	out, err := h.svc.Metrics(c.UserContext(), c.Query("granularity", GranularityDay), c.Query("from"), c.Query("to"))
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (h *Handler) Report(c *fiber.Ctx) error {
	data, err := h.svc.ExportCSV(c.UserContext(), c.Query("from"), c.Query("to"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, ReportFilename))
	return c.Send(data)
}

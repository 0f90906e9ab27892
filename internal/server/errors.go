package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpinghands/helpinghands/internal/apperr"
)

const internalErrorDetail = "Internal server error."

// ErrorHandler renders every failed request as {"detail": message}. Domain
// errors keep their message; unexpected errors are logged and hidden.
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, detail := http.StatusInternalServerError, internalErrorDetail

		var fe *fiber.Error
		var de *apperr.Error
		switch {
		case errors.As(err, &fe):
			status, detail = fe.Code, fe.Message
		case errors.As(err, &de):
			status, detail = apperr.Status(err), de.Error()
		default:
			log.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(status).JSON(fiber.Map{"detail": detail})
	}
}

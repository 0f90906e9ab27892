package middleware

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/logging"
)

func TestAuditLogsStatusAndRequestID(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestID(), Audit(logging.NewWithWriter(&buf, "info")))
	app.Get("/flags/:id", func(c *fiber.Ctx) error { return apperr.NotFound("Flag not found.") })

	req := httptest.NewRequest(fiber.MethodGet, "/flags/7", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get(requestIDHeader))

	line := buf.String()
	assert.Contains(t, line, `"msg":"request completed"`)
	assert.Contains(t, line, `"status":404`)
	assert.Contains(t, line, `"request_id":"req-42"`)
	assert.Contains(t, line, `"level":"WARN"`)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpinghands/helpinghands/internal/apperr"
	"github.com/helpinghands/helpinghands/internal/config"
	"github.com/helpinghands/helpinghands/internal/logging"
	"github.com/helpinghands/helpinghands/internal/profiles"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWithCache(t, nil)
}

func newTestServerWithCache(t *testing.T, cache *redis.Client) *Server {
	t.Helper()
	cfg := config.Config{
		AppName:        "HelpingHandsTest",
		AppEnv:         "test",
		SecretKey:      "test-secret",
		SessionTTL:     time.Hour,
		IdempotencyTTL: time.Minute,
		Receipts:       config.ReceiptConfig{Backend: "local", Dir: t.TempDir()},
	}
	srv, err := New(context.Background(), cfg, nil, cache, logging.Discard())
	require.NoError(t, err)
	return srv
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func createPIN(t *testing.T, srv *Server, username string) {
	t.Helper()
	_, err := srv.Services().Profiles.CreatePIN(context.Background(), profiles.NewPIN{
		Account:           profiles.Account{Username: username, Email: username + "@example.com", Password: "Test1234!"},
		Details:           profiles.Details{Name: "Tan Ah Kow", DOB: time.Date(1950, 5, 1, 0, 0, 0, 0, time.UTC), Phone: "91234567", Address: "Blk 1 Toa Payoh"},
		PreferredLanguage: "en",
	})
	require.NoError(t, err)
}

func postWithKey(t *testing.T, app *fiber.App, path, token, key, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("Idempotency-Key", key)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestIdempotencyKeyNeverSharesLogins(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	srv := newTestServerWithCache(t, cache)
	app := srv.App()
	createPIN(t, srv, "pin1")
	createPIN(t, srv, "pin2")

	status, body := postWithKey(t, app, "/api/auth/login", "", "k1", `{"username":"pin1","password":"Test1234!"}`)
	require.Equal(t, http.StatusOK, status, body)
	firstUser := body["user_id"]

	status, body = postWithKey(t, app, "/api/auth/login", "", "k1", `{"username":"pin2","password":"WRONG"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEqual(t, firstUser, body["user_id"])
}

func TestIdempotencyKeyScopedPerUser(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	srv := newTestServerWithCache(t, cache)
	app := srv.App()
	createPIN(t, srv, "pin1")
	createPIN(t, srv, "pin2")
	tok1 := login(t, app, "pin1")
	tok2 := login(t, app, "pin2")

	req := `{"service_type": "Healthcare", "appointment_date": "2030-01-15", "appointment_time": "09:30",
		"pickup_location": "Blk 1 Toa Payoh", "service_location": "TTSH", "description": "Follow-up visit"}`
	status, first := postWithKey(t, app, "/api/pin/requests", tok1, "same-key", req)
	require.Equal(t, http.StatusCreated, status, first)
	status, replay := postWithKey(t, app, "/api/pin/requests", tok1, "same-key", req)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, first["id"], replay["id"])

	status, other := postWithKey(t, app, "/api/pin/requests", tok2, "same-key", req)
	require.Equal(t, http.StatusCreated, status, other)
	assert.NotEqual(t, first["id"], other["id"])
	assert.NotEqual(t, first["pin_id"], other["pin_id"])
}

func login(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/auth/login", "", `{"username":"`+username+`","password":"Test1234!"}`)
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string)
}

func TestHealthAndPing(t *testing.T) {
	app := newTestServer(t).App()

	status, body := call(t, app, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"postgres": "memory", "redis": "disabled"}, body["status"])

	status, body = call(t, app, http.MethodGet, "/api/ping", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["request_id"])
}

func TestPINRequestFlow(t *testing.T) {
	srv := newTestServer(t)
	app := srv.App()
	_, err := srv.Services().Profiles.CreatePIN(context.Background(), profiles.NewPIN{
		Account:           profiles.Account{Username: "pin1", Email: "pin1@example.com", Password: "Test1234!"},
		Details:           profiles.Details{Name: "Tan Ah Kow", DOB: time.Date(1950, 5, 1, 0, 0, 0, 0, time.UTC), Phone: "91234567", Address: "Blk 1 Toa Payoh"},
		PreferredLanguage: "en",
	})
	require.NoError(t, err)

	status, body := call(t, app, http.MethodGet, "/api/pin/requests", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authentication required", body["detail"])

	token := login(t, app, "pin1")

	status, body = call(t, app, http.MethodGet, "/api/csr/pool", token, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden", body["detail"])

	status, body = call(t, app, http.MethodPost, "/api/pin/requests", token, `{
		"service_type": "Healthcare",
		"appointment_date": "2030-01-15",
		"appointment_time": "09:30",
		"pickup_location": "Blk 1 Toa Payoh",
		"service_location": "TTSH",
		"description": "Follow-up visit"
	}`)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "pending", body["status"])

	status, body = call(t, app, http.MethodPost, "/api/pin/requests", token, `{"service_type": "Gardening"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid service_type", body["detail"])

	status, body = call(t, app, http.MethodGet, "/api/auth/me", token, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "pin1", body["username"])
}

func TestErrorHandlerHidesInternalErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("pq: connection reset") })
	app.Get("/gone", func(c *fiber.Ctx) error { return apperr.NotFound("Flag not found.") })

	status, body := call(t, app, http.MethodGet, "/boom", "", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, internalErrorDetail, body["detail"])

	status, body = call(t, app, http.MethodGet, "/gone", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Flag not found.", body["detail"])
}

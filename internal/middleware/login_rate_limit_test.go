package middleware

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginApp(cache *redis.Client, perMin int) *fiber.App {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, perMin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func attempt(t *testing.T, app *fiber.App, username string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"username":"`+username+`","password":"x"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginRateLimitWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	app := loginApp(cache, 2)

	assert.Equal(t, fiber.StatusOK, attempt(t, app, "pin1"))
	assert.Equal(t, fiber.StatusOK, attempt(t, app, "PIN1 "))
	assert.Equal(t, fiber.StatusTooManyRequests, attempt(t, app, "pin1"))
	assert.Equal(t, fiber.StatusOK, attempt(t, app, "pin2"))

	assert.True(t, mr.Exists("rl:login:pin1"))
	assert.True(t, mr.TTL("rl:login:pin1") > 0)
}

func TestLoginRateLimitInProcess(t *testing.T) {
	app := loginApp(nil, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, attempt(t, app, "cv1"))
	}
	assert.Equal(t, fiber.StatusTooManyRequests, attempt(t, app, "cv1"))
	assert.Equal(t, fiber.StatusOK, attempt(t, app, "cv2"))
}

func TestLocalLimiterDropsIdleSubjects(t *testing.T) {
	clock := time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)
	l := newLocalLimiter(1)
	l.now = func() time.Time { return clock }

	for i := 0; i < 100; i++ {
		assert.True(t, l.allow(fmt.Sprintf("10.0.0.%d", i)))
	}
	assert.False(t, l.allow("10.0.0.1"))
	assert.Len(t, l.limiters, 100)

	clock = clock.Add(30 * time.Second)
	assert.False(t, l.allow("10.0.0.1"), "still limited inside the window")

	clock = clock.Add(limiterIdle)
	assert.True(t, l.allow("fresh"))
	assert.Len(t, l.limiters, 1, "buckets idle for a minute are dropped")
	assert.True(t, l.allow("10.0.0.1"))
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/helpinghands/helpinghands/internal/auth"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:hh:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

var errInFlight = fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")

type replayEntry struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

func safeMethod(m string) bool {
	switch strings.ToUpper(m) {
	case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
		return true
	}
	return false
}

// Idempotency replays the stored response of a state changing request sent
// again by the same user with the same Idempotency-Key header. It must run
// after Session: anonymous requests and requests without the header pass
// through untouched. Only successful responses are remembered, never their
// cookies. The middleware fails open when Redis is unreachable.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := strings.TrimSpace(c.Get(idempotencyKeyHeader))
		if key == "" || safeMethod(c.Method()) {
			return c.Next()
		}
		p, ok := auth.PrincipalFrom(c)
		if !ok || p.UserID == "" {
			return c.Next()
		}
		log := logger.With(slog.String("idempotency_key", key), slog.String("user_id", p.UserID))
		slot := idempotencySlot(p.UserID, c.Method(), c.Path(), key)

		ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, slot).Result()
		if err == nil {
			if cached == inProgressMarker {
				return errInFlight
			}
			return replay(c, cached, log)
		}
		if !errors.Is(err, redis.Nil) {
			log.Error("idempotency lookup failed", slog.Any("error", err))
			return c.Next()
		}

		reserved, err := cache.SetNX(ctx, slot, inProgressMarker, ttl).Result()
		if err != nil {
			log.Error("idempotency reservation failed", slog.Any("error", err))
			return c.Next()
		}
		if !reserved {
			return errInFlight
		}

		if err := c.Next(); err != nil {
			forget(cache, slot)
			return err
		}
		if c.Response().StatusCode() >= fiber.StatusBadRequest {
			forget(cache, slot)
			return nil
		}
		remember(c, cache, slot, ttl, log)
		return nil
	}
}

func idempotencySlot(userID, method, path, key string) string {
	return idempotencyPrefix + userID + ":" + method + ":" + path + ":" + key
}

func replay(c *fiber.Ctx, cached string, log *slog.Logger) error {
	var entry replayEntry
	if err := json.Unmarshal([]byte(cached), &entry); err != nil {
		log.Warn("stored idempotent response unreadable", slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}
	for header, value := range entry.Headers {
		if replayableHeader(header) {
			c.Set(header, value)
		}
	}
	return c.Status(entry.Status).SendString(entry.Body)
}

func remember(c *fiber.Ctx, cache *redis.Client, slot string, ttl time.Duration, log *slog.Logger) {
	entry := replayEntry{
		Status:  c.Response().StatusCode(),
		Body:    string(c.Response().Body()),
		Headers: map[string]string{},
	}
	c.Response().Header.VisitAll(func(k, v []byte) {
		if replayableHeader(string(k)) {
			entry.Headers[string(k)] = string(v)
		}
	})
	payload, err := json.Marshal(entry)
	if err != nil {
		log.Error("encode idempotent response", slog.Any("error", err))
		forget(cache, slot)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
	defer cancel()
	if err := cache.Set(ctx, slot, payload, ttl).Err(); err != nil {
		log.Error("persist idempotent response", slog.Any("error", err))
		cache.Del(ctx, slot)
	}
}

func replayableHeader(name string) bool {
	return !strings.EqualFold(name, fiber.HeaderContentLength) && !strings.EqualFold(name, fiber.HeaderSetCookie)
}

func forget(cache *redis.Client, slot string) {
	ctx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
	defer cancel()
	cache.Del(ctx, slot)
}

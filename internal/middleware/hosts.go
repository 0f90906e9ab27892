package middleware

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AllowedHosts rejects requests whose Host header matches none of hosts.
// An entry starting with a dot matches the domain and every subdomain, and
// "*" allows everything. An empty list disables the check.
func AllowedHosts(hosts []string) fiber.Handler {
	allowed := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "*" {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		if h != "" {
			allowed = append(allowed, h)
		}
	}
	if len(allowed) == 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return func(c *fiber.Ctx) error {
		if hostAllowed(c.Hostname(), allowed) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusBadRequest, "Invalid host header")
	}
}

func hostAllowed(host string, allowed []string) bool {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	for _, a := range allowed {
		if strings.HasPrefix(a, ".") {
			if host == a[1:] || strings.HasSuffix(host, a) {
				return true
			}
			continue
		}
		if host == a {
			return true
		}
	}
	return false
}

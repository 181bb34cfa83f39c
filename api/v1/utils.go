package v1

import (
	"net"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// getClientIP resolves the client address behind a reverse proxy. The
// first X-Forwarded-For entry wins over the transport peer address.
func getClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip := normalizeIP(first); ip != "" {
			return ip
		}
	}

	for _, header := range []string{
		"X-Real-IP",
		"CF-Connecting-IP",
		"True-Client-IP",
	} {
		if value := c.Get(header); value != "" {
			if ip := normalizeIP(value); ip != "" {
				return ip
			}
		}
	}

	return c.IP()
}

func normalizeIP(raw string) string {
	clean := strings.Trim(strings.TrimSpace(raw), "\"")
	if clean == "" {
		return ""
	}

	// Zone identifier, e.g. fe80::1%eth0
	if percent := strings.Index(clean, "%"); percent != -1 {
		clean = clean[:percent]
	}

	if host, _, err := net.SplitHostPort(clean); err == nil {
		clean = host
	}
	clean = strings.Trim(clean, "[]")

	if net.ParseIP(clean) == nil {
		return ""
	}
	return clean
}

package v1

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIP(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"203.0.113.7", "203.0.113.7"},
		{" 203.0.113.7 ", "203.0.113.7"},
		{"203.0.113.7:8080", "203.0.113.7"},
		{"\"203.0.113.7\"", "203.0.113.7"},
		{"2001:db8::1", "2001:db8::1"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"fe80::1%eth0", "fe80::1"},
		{"not-an-ip", ""},
		{"", ""},
		{"203.0.113", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, normalizeIP(tc.raw), "input %q", tc.raw)
	}
}

func TestGetClientIP(t *testing.T) {
	app := fiber.New()

	capture := func(out *string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			*out = getClientIP(c)
			return c.SendStatus(fiber.StatusOK)
		}
	}

	t.Run("first forwarded entry wins", func(t *testing.T) {
		var got string
		app.Get("/xff", capture(&got))

		req := httptest.NewRequest("GET", "/xff", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 198.51.100.1, 10.0.0.1")
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "203.0.113.7", got)
	})

	t.Run("falls through to real-ip headers", func(t *testing.T) {
		var got string
		app.Get("/real", capture(&got))

		req := httptest.NewRequest("GET", "/real", nil)
		req.Header.Set("X-Forwarded-For", "garbage")
		req.Header.Set("X-Real-IP", "198.51.100.9")
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "198.51.100.9", got)
	})

	t.Run("peer address as last resort", func(t *testing.T) {
		var got string
		app.Get("/peer", capture(&got))

		req := httptest.NewRequest("GET", "/peer", nil)
		_, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEmpty(t, got)
	})
}

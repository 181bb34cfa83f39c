package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"sitepulse/internal/sites"
	"sitepulse/internal/users"
)

// Locals keys populated by the auth middleware.
const (
	LocalUserID = "auth_user_id"
	LocalScope  = "auth_scope"
)

// APIKeyAuth validates the bearer API key on the metrics endpoints and
// resolves the caller's authorized site scope.
// Expects: Authorization: Bearer <api_key>
func APIKeyAuth(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
				"code":  "UNAUTHENTICATED",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid Authorization header format. Expected: Bearer <api_key>",
				"code":  "UNAUTHENTICATED",
			})
		}

		providedKey := strings.TrimPrefix(authHeader, "Bearer ")
		user, err := users.GetUserByAPIKey(db, providedKey)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API key",
				"code":  "UNAUTHENTICATED",
			})
		}

		scope, err := sites.AuthorizedSiteIDs(db, user.ID)
		if err != nil {
			logger.Error("Failed to resolve site scope",
				slog.Uint64("user_id", uint64(user.ID)),
				slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to resolve site access",
			})
		}

		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalScope, scope)
		return c.Next()
	}
}

package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/daterange"
	"sitepulse/internal/http/middleware"
	"sitepulse/internal/rules"
	"sitepulse/internal/sites"
)

// respondError maps domain errors onto the API's error taxonomy:
// client-caused conditions get 400/403, everything else is a 500.
func respondError(ctx *cartridge.Context, err error) error {
	var unauthorized *analytics.UnauthorizedSiteError
	if errors.As(err, &unauthorized) {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": unauthorized.Error(),
			"code":  "UNAUTHORIZED_SITE",
		})
	}

	var notOwner *rules.NotOwnerError
	if errors.As(err, &notOwner) {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{
			"error": notOwner.Error(),
			"code":  "UNAUTHORIZED_SITE",
		})
	}

	var badRange *daterange.InvalidRangeError
	if errors.As(err, &badRange) {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": badRange.Error(),
			"code":  "INVALID_DATE_RANGE",
		})
	}

	var siteNotFound *sites.SiteNotFoundError
	if errors.As(err, &siteNotFound) {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": siteNotFound.Error(),
			"code":  "INVALID_SITE",
		})
	}

	ctx.Logger.Error("Request failed", slog.Any("error", err))
	return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// callerScope reads the authorized site scope resolved by the auth
// middleware.
func callerScope(ctx *cartridge.Context) analytics.Scope {
	if scope, ok := ctx.Locals(middleware.LocalScope).([]string); ok {
		return analytics.Scope(scope)
	}
	return nil
}

// callerUserID reads the authenticated user ID resolved by the auth
// middleware.
func callerUserID(ctx *cartridge.Context) uint {
	if id, ok := ctx.Locals(middleware.LocalUserID).(uint); ok {
		return id
	}
	return 0
}

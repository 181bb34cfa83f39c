// Package v1 is the public HTTP surface called by the tracking
// snippet: event collection and active-rule fetching. Everything here
// is unauthenticated and rate limited at the router.
package v1

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/events"
	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/sites"
	"sitepulse/internal/tech"
)

// API bundles the dependencies the public handlers need beyond the
// request context.
type API struct {
	Geo *geoip.Resolver
}

func New(geo *geoip.Resolver) *API {
	return &API{Geo: geo}
}

// CollectEventParams is the JSON payload posted by the snippet.
type CollectEventParams struct {
	SiteID        string `json:"siteId"`
	VisitorID     string `json:"visitorId"`
	PageURL       string `json:"pageUrl"`
	PageTitle     string `json:"pageTitle"`
	Referrer      string `json:"referrer"`
	UserAgent     string `json:"userAgent"`
	Language      string `json:"language"`
	Platform      string `json:"platform"`
	ScreenSize    string `json:"screenSize"`
	Timezone      string `json:"timezone"`
	EventType     string `json:"eventType"`
	ClickedURL    string `json:"clicked_url"`
	IsExternal    bool   `json:"is_external"`
	ScrollPercent *int   `json:"scrollPercent"`
	Timestamp     string `json:"timestamp"`
}

// CollectHandler ingests one event posted by the tracking snippet.
func (a *API) CollectHandler(ctx *cartridge.Context) error {
	var params CollectEventParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("Failed to parse collect request", slog.Any("error", err))
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  "MALFORMED_PAYLOAD",
		})
	}

	event, err := events.CollectEvent(ctx.DBManager, ctx.Logger, a.buildInput(ctx, &params))
	if err != nil {
		return collectErrorResponse(ctx, err)
	}

	if event != nil {
		// Best effort, outside the ingest transaction.
		tech.RecordSnapshot(ctx.DB(), ctx.Logger, a.Geo,
			event.SiteID, event.VisitorID, event.UserAgent,
			params.ScreenSize, event.IPAddress, event.CreatedAt)
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// BeaconHandler ingests events delivered via navigator.sendBeacon.
// Beacons are fire-and-forget, so every outcome answers 202.
func (a *API) BeaconHandler(ctx *cartridge.Context) error {
	var params CollectEventParams
	if err := json.Unmarshal(ctx.Body(), &params); err != nil {
		ctx.Logger.Debug("Failed to parse beacon request", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}

	event, err := events.CollectEvent(ctx.DBManager, ctx.Logger, a.buildInput(ctx, &params))
	if err != nil {
		ctx.Logger.Debug("Failed to collect beacon event", slog.Any("error", err))
		return ctx.SendStatus(http.StatusAccepted)
	}

	if event != nil {
		tech.RecordSnapshot(ctx.DB(), ctx.Logger, a.Geo,
			event.SiteID, event.VisitorID, event.UserAgent,
			params.ScreenSize, event.IPAddress, event.CreatedAt)
	}

	return ctx.SendStatus(http.StatusAccepted)
}

func (a *API) buildInput(ctx *cartridge.Context, params *CollectEventParams) *events.CollectEventInput {
	userAgent := params.UserAgent
	if userAgent == "" {
		userAgent = ctx.Get("User-Agent")
	}

	return &events.CollectEventInput{
		SiteID:        params.SiteID,
		VisitorID:     params.VisitorID,
		PageURL:       params.PageURL,
		PageTitle:     params.PageTitle,
		Referrer:      params.Referrer,
		UserAgent:     userAgent,
		IPAddress:     getClientIP(ctx.Ctx),
		Language:      params.Language,
		Platform:      params.Platform,
		ScreenSize:    params.ScreenSize,
		Timezone:      params.Timezone,
		EventType:     params.EventType,
		ClickedURL:    params.ClickedURL,
		IsExternal:    params.IsExternal,
		ScrollPercent: params.ScrollPercent,
	}
}

func collectErrorResponse(ctx *cartridge.Context, err error) error {
	ctx.Logger.Error("Failed to collect event", slog.Any("error", err))

	if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "busy") {
		return ctx.Status(599).JSON(fiber.Map{})
	}

	var siteNotFound *sites.SiteNotFoundError
	if errors.As(err, &siteNotFound) {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Site not registered",
			"code":  "INVALID_SITE",
		})
	}

	var malformed *events.MalformedPayloadError
	if errors.As(err, &malformed) {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": malformed.Error(),
			"code":  "MALFORMED_PAYLOAD",
		})
	}

	return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to collect event",
		"code":  "COLLECTION_ERROR",
	})
}

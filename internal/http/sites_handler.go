package http

import (
	"net/http"
	"time"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/daterange"
	"sitepulse/internal/events"
	"sitepulse/internal/sites"
)

// SitesHandler lists the caller's scoped sites with recent event
// volume.
func SitesHandler(ctx *cartridge.Context) error {
	scope := callerScope(ctx)

	withStats, err := sites.GetSitesWithStats(ctx.DB(), scope, 30)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(map[string]interface{}{
		"sites": withStats,
	})
}

// RecentEventsHandler lists raw events for debugging and the
// management UI, newest first, paginated.
func RecentEventsHandler(ctx *cartridge.Context) error {
	scope, err := callerScope(ctx).Narrow(ctx.Query("site_id"))
	if err != nil {
		return respondError(ctx, err)
	}

	window, err := daterange.Parse(ctx.Query("start"), ctx.Query("end"), time.Now())
	if err != nil {
		return respondError(ctx, err)
	}

	limit := ctx.Ctx.QueryInt("limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := ctx.Ctx.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	result, err := events.GetFilteredEvents(ctx.DB(), events.EventFilters{
		SiteIDs:   scope,
		FromDate:  window.From,
		ToDate:    window.To,
		URLFilter: ctx.Query("url"),
		Type:      ctx.Query("type"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(map[string]interface{}{
		"events": result.Events,
		"total":  result.Total,
		"limit":  limit,
		"offset": offset,
	})
}

// HealthHandler answers liveness probes.
func HealthHandler(ctx *cartridge.Context) error {
	return ctx.Status(http.StatusOK).JSON(map[string]string{"status": "ok"})
}

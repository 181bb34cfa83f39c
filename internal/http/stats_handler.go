package http

import (
	"net/http"
	"time"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/analytics"
	"sitepulse/internal/daterange"
	"sitepulse/internal/sites"
)

// RealtimeStatsHandler serves the full realtime metrics payload over
// the caller's authorized scope, optionally narrowed to one site.
func RealtimeStatsHandler(ctx *cartridge.Context) error {
	scope, err := callerScope(ctx).Narrow(ctx.Query("site_id"))
	if err != nil {
		return respondError(ctx, err)
	}

	metrics, err := analytics.GetRealtimeMetrics(ctx.Ctx.UserContext(), ctx.DB(), scope, time.Now())
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(metrics)
}

// EventTypesHandler serves grouped event-type counts over a trailing
// window given in minutes (default 30).
func EventTypesHandler(ctx *cartridge.Context) error {
	scope, err := callerScope(ctx).Narrow(ctx.Query("site_id"))
	if err != nil {
		return respondError(ctx, err)
	}

	minutes := ctx.Ctx.QueryInt("minutes", 30)
	if minutes <= 0 {
		minutes = 30
	}

	counts, err := analytics.EventTypeCounts(ctx.DB(), scope, time.Now(), time.Duration(minutes)*time.Minute)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(map[string]interface{}{
		"window_minutes": minutes,
		"events":         counts,
	})
}

// ReferrersHandler serves the raw referrer report for one site over an
// inclusive calendar-day range.
func ReferrersHandler(ctx *cartridge.Context) error {
	siteID := ctx.Query("site_id")
	if siteID == "" {
		return ctx.Status(http.StatusBadRequest).JSON(map[string]string{
			"error": "site_id is required",
			"code":  "MALFORMED_PAYLOAD",
		})
	}

	scope, err := callerScope(ctx).Narrow(siteID)
	if err != nil {
		return respondError(ctx, err)
	}

	window, err := daterange.Parse(ctx.Query("start"), ctx.Query("end"), time.Now())
	if err != nil {
		return respondError(ctx, err)
	}

	site, err := sites.GetSiteByToken(ctx.DB(), siteID)
	if err != nil {
		return respondError(ctx, err)
	}

	includeInternal := ctx.Query("include_internal") == "true"
	report, err := analytics.ReferrerReport(ctx.DB(), scope, window.From, window.To, site.Domain, includeInternal)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(map[string]interface{}{
		"site_id":   siteID,
		"from":      window.From,
		"to":        window.To,
		"referrers": report,
	})
}

// TechStatsHandler serves browser, OS, device and screen breakdowns
// over an optional date range.
func TechStatsHandler(ctx *cartridge.Context) error {
	scope, err := callerScope(ctx).Narrow(ctx.Query("site_id"))
	if err != nil {
		return respondError(ctx, err)
	}

	window, err := daterange.Parse(ctx.Query("start"), ctx.Query("end"), time.Now())
	if err != nil {
		return respondError(ctx, err)
	}

	report, err := analytics.GetTechReport(ctx.Ctx.UserContext(), ctx.DB(), scope, window.From, window.To)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

// AudienceStatsHandler serves the scroll-depth report over an optional
// date range.
func AudienceStatsHandler(ctx *cartridge.Context) error {
	scope, err := callerScope(ctx).Narrow(ctx.Query("site_id"))
	if err != nil {
		return respondError(ctx, err)
	}

	window, err := daterange.Parse(ctx.Query("start"), ctx.Query("end"), time.Now())
	if err != nil {
		return respondError(ctx, err)
	}

	report, err := analytics.ScrollDepth(ctx.DB(), scope, window.From, window.To)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(report)
}

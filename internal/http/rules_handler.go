package http

import (
	"net/http"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/rules"
)

type createRuleParams struct {
	SiteID    string `json:"site_id"`
	Selector  string `json:"selector"`
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
}

// CreateRuleHandler creates a tracking rule. Only the site owner may
// add rules.
func CreateRuleHandler(ctx *cartridge.Context) error {
	var params createRuleParams
	if err := ctx.Ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(map[string]string{
			"error": "Invalid request body",
			"code":  "MALFORMED_PAYLOAD",
		})
	}
	if params.SiteID == "" || params.Selector == "" || params.EventName == "" {
		return ctx.Status(http.StatusBadRequest).JSON(map[string]string{
			"error": "site_id, selector and event_name are required",
			"code":  "MALFORMED_PAYLOAD",
		})
	}

	rule, err := rules.AddRule(ctx.DB(), callerUserID(ctx), params.SiteID,
		params.Selector, params.EventType, params.EventName)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusCreated).JSON(rule)
}

// ManageRulesHandler lists every rule for a scoped site, active or
// not, for the management UI.
func ManageRulesHandler(ctx *cartridge.Context) error {
	siteID := ctx.Query("site_id")
	if siteID == "" {
		return ctx.Status(http.StatusBadRequest).JSON(map[string]string{
			"error": "site_id is required",
			"code":  "MALFORMED_PAYLOAD",
		})
	}
	if _, err := callerScope(ctx).Narrow(siteID); err != nil {
		return respondError(ctx, err)
	}

	ruleList, err := rules.ListRules(ctx.DB(), siteID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(map[string]interface{}{"rules": ruleList})
}

// AnalyzeRulesHandler correlates a site's rules against the event log.
func AnalyzeRulesHandler(ctx *cartridge.Context) error {
	siteID := ctx.Query("site_id")
	if siteID == "" {
		return ctx.Status(http.StatusBadRequest).JSON(map[string]string{
			"error": "site_id is required",
			"code":  "MALFORMED_PAYLOAD",
		})
	}
	if _, err := callerScope(ctx).Narrow(siteID); err != nil {
		return respondError(ctx, err)
	}

	analyses, err := rules.AnalyzeRules(ctx.DB(), siteID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(map[string]interface{}{"rules": analyses})
}

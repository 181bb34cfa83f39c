package v1

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"sitepulse/internal/rules"
)

type ruleResponse struct {
	ID        uint   `json:"id"`
	Selector  string `json:"selector"`
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
}

// ActiveRulesHandler returns the active tracking rules for a site so
// the snippet can attach its listeners. Public, keyed only by site
// token.
func (a *API) ActiveRulesHandler(ctx *cartridge.Context) error {
	siteID := ctx.Query("site_id")
	if siteID == "" {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "site_id is required",
			"code":  "MALFORMED_PAYLOAD",
		})
	}

	active, err := rules.ListActiveRules(ctx.DB(), siteID)
	if err != nil {
		ctx.Logger.Error("Failed to list active rules",
			slog.String("site_id", siteID),
			slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load rules",
		})
	}

	response := make([]ruleResponse, len(active))
	for i, rule := range active {
		response[i] = ruleResponse{
			ID:        rule.ID,
			Selector:  rule.Selector,
			EventType: rule.EventType,
			EventName: rule.EventName,
		}
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{"rules": response})
}

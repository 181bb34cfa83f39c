package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "sitepulse/api/v1"
	"sitepulse/internal/config"
	"sitepulse/internal/http"
	"sitepulse/internal/http/middleware"
	"sitepulse/internal/pkg/geoip"
)

// publicCORSConfig is shared by every public endpoint: the snippet
// posts cross-origin from arbitrary tracked sites.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API.
func MountAppRoutes(geo *geoip.Resolver) func(srv *cartridge.Server) {
	return func(srv *cartridge.Server) {
		cfg := config.GetConfig()
		publicAPI := v1.New(geo)

		// Rate limiting would interfere with tests, so it only applies
		// in production.
		conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
			return func(c *fiber.Ctx) error {
				if cfg.IsProduction() {
					return limiter(c)
				}
				return c.Next()
			}
		}

		// 120/min per IP absorbs legitimate snippet traffic while
		// capping abuse.
		publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
			cartridgemiddleware.WithMax(120),
			cartridgemiddleware.WithDuration(time.Minute),
		))

		publicAPIConfig := &cartridge.RouteConfig{
			EnableCORS:         true,
			WriteConcurrency:   false,
			CustomMiddleware:   []fiber.Handler{publicRateLimiter},
			CORSConfig:         publicCORSConfig,
			EnableSecFetchSite: cartridge.Bool(false),
		}

		db := srv.GetDBManager().GetConnection()
		logger := srv.GetLogger()

		statsAPIConfig := &cartridge.RouteConfig{
			CustomMiddleware: []fiber.Handler{
				middleware.APIKeyAuth(db, logger),
			},
		}

		noContent := func(ctx *cartridge.Context) error {
			return ctx.SendStatus(fiber.StatusNoContent)
		}

		// === HEALTH ===
		srv.Get("/_health", http.HealthHandler)
		srv.Head("/_health", http.HealthHandler)

		// === PUBLIC API ROUTES ===
		srv.Post("/api/v1/collect", publicAPI.CollectHandler, publicAPIConfig)
		srv.Options("/api/v1/collect", noContent, publicAPIConfig)
		srv.Post("/api/v1/collect/beacon", publicAPI.BeaconHandler, publicAPIConfig)
		srv.Options("/api/v1/collect/beacon", noContent, publicAPIConfig)
		srv.Get("/api/v1/rules", publicAPI.ActiveRulesHandler, publicAPIConfig)
		srv.Options("/api/v1/rules", noContent, publicAPIConfig)

		// === AUTHENTICATED STATS ROUTES ===
		srv.Get("/api/v1/sites", http.SitesHandler, statsAPIConfig)
		srv.Get("/api/v1/stats/realtime", http.RealtimeStatsHandler, statsAPIConfig)
		srv.Get("/api/v1/stats/events", http.EventTypesHandler, statsAPIConfig)
		srv.Get("/api/v1/stats/events/recent", http.RecentEventsHandler, statsAPIConfig)
		srv.Get("/api/v1/stats/referrers", http.ReferrersHandler, statsAPIConfig)
		srv.Get("/api/v1/stats/tech", http.TechStatsHandler, statsAPIConfig)
		srv.Get("/api/v1/stats/audience", http.AudienceStatsHandler, statsAPIConfig)

		// === RULE MANAGEMENT ===
		srv.Post("/api/v1/rules", http.CreateRuleHandler, statsAPIConfig)
		srv.Get("/api/v1/rules/manage", http.ManageRulesHandler, statsAPIConfig)
		srv.Get("/api/v1/rules/analyze", http.AnalyzeRulesHandler, statsAPIConfig)
	}
}

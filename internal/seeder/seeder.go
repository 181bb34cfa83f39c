// Package seeder generates realistic sample traffic for local
// development and demos.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"sitepulse/internal/events"
	"sitepulse/internal/sites"
	"sitepulse/internal/users"
	"sitepulse/internal/visitors"
)

// Seeder handles the data seeding process.
type Seeder struct {
	DBManager  cartridge.DBManager
	Logger     *slog.Logger
	EventCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, eventCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:  dbManager,
		Logger:     logger,
		EventCount: eventCount,
	}
}

// Run seeds the given site token, or creates a demo user and site when
// the token is empty.
func (s *Seeder) Run(ctx context.Context, siteToken string) error {
	start := time.Now()
	db := s.DBManager.GetConnection()

	site, err := s.resolveSite(db, siteToken)
	if err != nil {
		return err
	}

	s.Logger.Info("Seeding site",
		slog.String("site_id", site.SiteID),
		slog.String("domain", site.Domain),
		slog.Int("eventCount", s.EventCount))

	if err := s.generateTraffic(ctx, db, site); err != nil {
		return fmt.Errorf("failed to generate traffic: %w", err)
	}

	s.Logger.Info("Seeding completed",
		slog.String("site_id", site.SiteID),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) resolveSite(db *gorm.DB, siteToken string) (*sites.Site, error) {
	if siteToken != "" {
		site, err := sites.GetSiteByToken(db, siteToken)
		if err != nil {
			return nil, fmt.Errorf("site lookup failed: %w", err)
		}
		return site, nil
	}

	owner, err := users.GetUserByEmail(db, "demo@sitepulse.local")
	if err != nil {
		var notFound *users.UserNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		owner, err = users.CreateUser(db, "demo@sitepulse.local", "demo-password")
		if err != nil {
			return nil, err
		}
		s.Logger.Info("Created demo user",
			slog.String("email", owner.Email),
			slog.String("api_key", owner.APIKey))
	}

	site, err := sites.CreateSite(db, owner.ID, "Demo Site", "demo.sitepulse.local")
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Created demo site", slog.String("site_id", site.SiteID))
	return site, nil
}

var journeyTemplates = [][]string{
	{"/", "/about", "/contact"},
	{"/", "/features", "/pricing", "/signup"},
	{"/", "/blog", "/blog/article-1", "/signup"},
	{"/pricing", "/features", "/signup"},
	{"/", "/docs", "/docs/getting-started", "/docs/api-reference"},
	{"/", "/signup"},
	{"/"},
	{"/blog/article-1"},
	{"/login", "/dashboard", "/settings"},
}

var seedReferrers = []string{
	"",
	"",
	"https://www.google.com/search?q=demo",
	"https://duckduckgo.com/",
	"https://t.co/abc123",
	"https://www.reddit.com/r/selfhosted/",
	"https://news.ycombinator.com/",
	"https://partner.example.com/integrations",
	"https://mail.google.com/mail/u/0/",
}

var seedUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
}

var screenSizes = []string{"1920x1080", "1440x900", "2560x1440", "390x844", "412x915"}

func (s *Seeder) generateTraffic(ctx context.Context, db *gorm.DB, site *sites.Site) error {
	avgPagesPerSession := 3
	numSessions := s.EventCount / avgPagesPerSession
	if numSessions < 10 {
		numSessions = 10
	}

	for session := 0; session < numSessions; session++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		journey := journeyTemplates[rand.IntN(len(journeyTemplates))]
		visitorID := fmt.Sprintf("seed-visitor-%06d", rand.IntN(numSessions/2+1))
		referrer := seedReferrers[rand.IntN(len(seedReferrers))]
		userAgent := seedUserAgents[rand.IntN(len(seedUserAgents))]
		screenSize := screenSizes[rand.IntN(len(screenSizes))]

		baseTime := time.Now().UTC().Add(-time.Duration(rand.IntN(40)) * time.Minute)
		cumulative := time.Duration(0)

		for pageIndex, path := range journey {
			if pageIndex > 0 {
				cumulative += time.Duration(rand.IntN(110)+10) * time.Second
				referrer = ""
			}
			timestamp := baseTime.Add(cumulative)

			if err := s.insertEvent(db, site, visitorID, path, referrer, userAgent, screenSize, timestamp); err != nil {
				return err
			}

			// Occasionally record scroll depth for the page.
			if rand.IntN(3) == 0 {
				scroll := rand.IntN(101)
				event := &events.Event{
					SiteID:        site.SiteID,
					VisitorID:     visitorID,
					EventType:     events.EventTypeScroll,
					PageURL:       "https://" + site.Domain + path,
					UserAgent:     userAgent,
					ScreenSize:    screenSize,
					ScrollPercent: &scroll,
					CreatedAt:     timestamp.Add(5 * time.Second),
				}
				if err := db.Create(event).Error; err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func (s *Seeder) insertEvent(db *gorm.DB, site *sites.Site, visitorID, path, referrer, userAgent, screenSize string, at time.Time) error {
	if err := visitors.Upsert(db, site.SiteID, visitorID, at); err != nil {
		return err
	}
	event := &events.Event{
		SiteID:     site.SiteID,
		VisitorID:  visitorID,
		EventType:  events.EventTypePageView,
		PageURL:    "https://" + site.Domain + path,
		PageTitle:  path,
		Referrer:   referrer,
		UserAgent:  userAgent,
		IPAddress:  fmt.Sprintf("203.0.113.%d", rand.IntN(254)+1),
		Language:   "en-US",
		Platform:   "Web",
		ScreenSize: screenSize,
		Timezone:   "UTC",
		CreatedAt:  at,
	}
	return db.Create(event).Error
}

// Package tech records per-event device snapshots that feed the tech
// report. Snapshots are best effort and written outside the ingest
// transaction.
package tech

import (
	"log/slog"
	"time"

	"sitepulse/internal/pkg/geoip"
	"sitepulse/internal/pkg/useragent"

	"gorm.io/gorm"
)

// TechSnapshot is the classified device context of one ingested event.
type TechSnapshot struct {
	ID              uint   `gorm:"primarykey"`
	SiteID          string `gorm:"size:64;index:idx_tech_site_created;not null"`
	VisitorID       string `gorm:"not null"`
	Browser         string
	OperatingSystem string
	DeviceType      string
	ScreenSize      string
	Country         string    `gorm:"size:2"`
	CreatedAt       time.Time `gorm:"index:idx_tech_site_created"`
}

// RecordSnapshot classifies the user agent, optionally resolves the
// country, and stores a snapshot row. Failures are logged and
// swallowed; a lost snapshot never affects the ingested event.
func RecordSnapshot(db *gorm.DB, logger *slog.Logger, geo *geoip.Resolver, siteID, visitorID, rawUA, screenSize, ip string, at time.Time) {
	parsed := useragent.Parse(rawUA)
	if parsed.Bot {
		return
	}

	snapshot := &TechSnapshot{
		SiteID:          siteID,
		VisitorID:       visitorID,
		Browser:         parsed.Browser,
		OperatingSystem: parsed.OS,
		DeviceType:      parsed.Device,
		ScreenSize:      screenSize,
		Country:         geo.CountryCode(ip),
		CreatedAt:       at,
	}

	if err := db.Create(snapshot).Error; err != nil {
		logger.Warn("Failed to record tech snapshot",
			slog.String("site_id", siteID),
			slog.Any("error", err))
	}
}

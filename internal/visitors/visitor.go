// Package visitors maintains the per-site visitor registry.
package visitors

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Visitor is one registry row per (site, visitor) pair. FirstSeen is set on
// the first event ever recorded for the pair and never changes; LastSeen is
// bumped on every event.
type Visitor struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	SiteID    string    `gorm:"uniqueIndex:idx_site_visitor;size:64;not null"`
	VisitorID string    `gorm:"uniqueIndex:idx_site_visitor;size:100;not null"`
	FirstSeen time.Time `gorm:"not null"`
	LastSeen  time.Time `gorm:"not null"`
}

// Upsert creates the registry row for (site, visitor) or bumps last_seen.
// The ON CONFLICT form makes concurrent upserts for the same pair safe: two
// rapid page loads race on the insert, and the loser turns into the update.
func Upsert(tx *gorm.DB, siteID, visitorID string, now time.Time) error {
	err := tx.Exec(`
		INSERT INTO visitors (site_id, visitor_id, first_seen, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (site_id, visitor_id) DO UPDATE SET
			last_seen = ?
	`, siteID, visitorID, now, now, now).Error
	if err != nil {
		return fmt.Errorf("failed to upsert visitor: %w", err)
	}
	return nil
}

// Get retrieves the registry row for a (site, visitor) pair.
func Get(db *gorm.DB, siteID, visitorID string) (*Visitor, error) {
	var v Visitor
	if err := db.Where("site_id = ? AND visitor_id = ?", siteID, visitorID).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// Count returns the number of registered visitors across the given sites.
func Count(db *gorm.DB, siteIDs []string) (int64, error) {
	var count int64
	err := db.Model(&Visitor{}).Where("site_id IN ?", siteIDs).Count(&count).Error
	return count, err
}

package sites

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sitepulse/internal/visitors"
)

// SiteNotFoundError represents an error when a site is not registered
type SiteNotFoundError struct {
	SiteID string
}

func (e *SiteNotFoundError) Error() string {
	return fmt.Sprintf("site not registered: %s", e.SiteID)
}

// NewSiteNotFoundError creates a new SiteNotFoundError
func NewSiteNotFoundError(siteID string) *SiteNotFoundError {
	return &SiteNotFoundError{SiteID: siteID}
}

// Site represents a tracked property. SiteID is the opaque token issued at
// registration and embedded in the tracking snippet; it never changes once
// issued.
type Site struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteID    string    `gorm:"uniqueIndex;size:64;not null" json:"site_id"`
	OwnerID   uint      `gorm:"index;not null" json:"owner_id"`
	Name      string    `gorm:"not null" json:"name"`
	Domain    string    `gorm:"index;not null" json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

// IssueSiteID generates a new opaque site token.
func IssueSiteID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// CreateSite registers a new site for an owner and issues its token.
func CreateSite(db *gorm.DB, ownerID uint, name, domain string) (*Site, error) {
	site := &Site{
		SiteID:    IssueSiteID(),
		OwnerID:   ownerID,
		Name:      name,
		Domain:    strings.ToLower(strings.TrimSpace(domain)),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(site).Error; err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}
	return site, nil
}

// GetSiteByToken retrieves a site by its opaque token. Returns
// SiteNotFoundError for unregistered tokens.
func GetSiteByToken(db *gorm.DB, siteID string) (*Site, error) {
	var site Site
	if err := db.Where("site_id = ?", siteID).First(&site).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, NewSiteNotFoundError(siteID)
		}
		return nil, fmt.Errorf("unexpected error querying site: %w", err)
	}
	return &site, nil
}

// SiteExists reports whether the given token belongs to a registered site.
func SiteExists(db *gorm.DB, siteID string) (bool, error) {
	var count int64
	if err := db.Model(&Site{}).Where("site_id = ?", siteID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check site existence: %w", err)
	}
	return count > 0, nil
}

// GetAllSites retrieves all registered sites
func GetAllSites(db *gorm.DB) ([]Site, error) {
	var all []Site
	if err := db.Order("created_at ASC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to get sites: %w", err)
	}
	return all, nil
}

// GetSitesByOwner retrieves the sites owned by a user
func GetSitesByOwner(db *gorm.DB, ownerID uint) ([]Site, error) {
	var owned []Site
	if err := db.Where("owner_id = ?", ownerID).Find(&owned).Error; err != nil {
		return nil, fmt.Errorf("failed to get sites for owner: %w", err)
	}
	return owned, nil
}

// IsOwner reports whether the user owns the site identified by token.
func IsOwner(db *gorm.DB, siteID string, userID uint) (bool, error) {
	var count int64
	err := db.Model(&Site{}).
		Where("site_id = ? AND owner_id = ?", siteID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check site ownership: %w", err)
	}
	return count > 0, nil
}

// SiteWithStats represents a site enriched with event volume
type SiteWithStats struct {
	ID           uint      `json:"id"`
	SiteID       string    `json:"site_id"`
	Name         string    `json:"name"`
	Domain       string    `json:"domain"`
	CreatedAt    time.Time `json:"created_at"`
	EventCount   int64     `json:"event_count"`
	VisitorCount int64     `json:"visitor_count"`
}

// GetSitesWithStats retrieves the given sites enriched with event counts
// over the trailing daysBack days and all-time visitor counts.
func GetSitesWithStats(db *gorm.DB, siteIDs []string, daysBack int) ([]SiteWithStats, error) {
	var allSites []Site
	if err := db.Where("site_id IN ?", siteIDs).Order("created_at ASC").Find(&allSites).Error; err != nil {
		return nil, fmt.Errorf("failed to get sites: %w", err)
	}

	result := make([]SiteWithStats, len(allSites))
	timeLimit := time.Now().UTC().AddDate(0, 0, -daysBack)

	for i, site := range allSites {
		var eventCount int64
		err := db.Table("events").
			Where("site_id = ? AND created_at >= ?", site.SiteID, timeLimit).
			Count(&eventCount).Error
		if err != nil {
			eventCount = 0
		}

		visitorCount, err := visitors.Count(db, []string{site.SiteID})
		if err != nil {
			visitorCount = 0
		}

		result[i] = SiteWithStats{
			ID:           site.ID,
			SiteID:       site.SiteID,
			Name:         site.Name,
			Domain:       site.Domain,
			CreatedAt:    site.CreatedAt,
			EventCount:   eventCount,
			VisitorCount: visitorCount,
		}
	}

	return result, nil
}

package sites

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AccessGrant lets a collaborator query a site they do not own. Grants are
// managed by the site owner (out of the aggregation core's scope); the core
// only reads them to build a caller's authorized site scope.
type AccessGrant struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteID    string    `gorm:"uniqueIndex:idx_grant_unique;size:64;not null" json:"site_id"`
	UserID    uint      `gorm:"uniqueIndex:idx_grant_unique;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// GrantAccess adds a collaborator grant. Re-granting is a no-op.
func GrantAccess(db *gorm.DB, siteID string, userID uint) error {
	return db.Exec(`
		INSERT INTO access_grants (site_id, user_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (site_id, user_id) DO NOTHING
	`, siteID, userID, time.Now().UTC()).Error
}

// RevokeAccess removes a collaborator grant.
func RevokeAccess(db *gorm.DB, siteID string, userID uint) error {
	return db.Where("site_id = ? AND user_id = ?", siteID, userID).
		Delete(&AccessGrant{}).Error
}

// AuthorizedSiteIDs returns the site tokens a user may query: sites they own
// plus sites granted to them. The result is the opaque scope filter every
// aggregation runs under.
func AuthorizedSiteIDs(db *gorm.DB, userID uint) ([]string, error) {
	var ids []string
	err := db.Raw(`
		SELECT site_id FROM sites WHERE owner_id = ?
		UNION
		SELECT site_id FROM access_grants WHERE user_id = ?
		ORDER BY site_id
	`, userID, userID).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authorized sites: %w", err)
	}
	return ids, nil
}

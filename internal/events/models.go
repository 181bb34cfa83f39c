package events

import "time"

// Canonical event types reported by the tracking snippet. EventType is a
// free-form string on the wire; these are the values the snippet emits and
// the ones always present in event-type count reports.
const (
	EventTypePageView       = "page_view"
	EventTypeClick          = "click"
	EventTypeScroll         = "scroll"
	EventTypeSessionStart   = "session_start"
	EventTypeUserEngagement = "user_engagement"
)

// CanonicalEventTypes lists the snippet's event types in report order.
var CanonicalEventTypes = []string{
	EventTypePageView,
	EventTypeClick,
	EventTypeScroll,
	EventTypeSessionStart,
	EventTypeUserEngagement,
}

// Event is an immutable append-only record of one client-reported event.
// CreatedAt is server-assigned; rows are never updated or deleted by the
// collector.
type Event struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	SiteID        string `gorm:"index:idx_site_created;size:64;not null"`
	VisitorID     string `gorm:"index;size:100;not null"`
	EventType     string `gorm:"index;size:50;not null;default:page_view"`
	PageURL       string
	PageTitle     string
	Referrer      string
	UserAgent     string
	IPAddress     string `gorm:"size:50"`
	Language      string `gorm:"size:20"`
	Platform      string `gorm:"size:50"`
	ScreenSize    string `gorm:"size:20"`
	Timezone      string `gorm:"size:50"`
	ClickedURL    string
	IsExternal    bool
	ScrollPercent *int      `gorm:"type:integer"`
	CreatedAt     time.Time `gorm:"index:idx_site_created;not null"`
}

package analytics

import (
	"fmt"
	"time"

	"sitepulse/internal/events"

	"gorm.io/gorm"
)

// DefaultEventTypeWindow applies when the caller omits a window length.
const DefaultEventTypeWindow = 30 * time.Minute

// EventTypeCount is one grouped row of the event-type report.
type EventTypeCount struct {
	Event string `json:"event"`
	Count int64  `json:"count"`
}

// EventTypeCounts groups events by type over the trailing window
// ending at now. Observed types come first ordered by count
// descending, then every canonical type not yet present is appended at
// zero so the client always sees the full set.
func EventTypeCounts(db *gorm.DB, scope Scope, now time.Time, window time.Duration) ([]EventTypeCount, error) {
	if window <= 0 {
		window = DefaultEventTypeWindow
	}

	var observed []EventTypeCount
	query := `
        SELECT event_type AS event, COUNT(*) AS count
        FROM events
        WHERE site_id IN ?
            AND created_at >= ? AND created_at < ?
        GROUP BY event_type
        ORDER BY count DESC, event_type ASC
    `
	err := db.Raw(query, []string(scope), now.Add(-window).UTC(), now.UTC()).Scan(&observed).Error
	if err != nil {
		return nil, fmt.Errorf("error counting event types: %w", err)
	}

	seen := make(map[string]bool, len(observed))
	for _, row := range observed {
		seen[row.Event] = true
	}
	for _, canonical := range events.CanonicalEventTypes {
		if !seen[canonical] {
			observed = append(observed, EventTypeCount{Event: canonical, Count: 0})
		}
	}

	return observed, nil
}

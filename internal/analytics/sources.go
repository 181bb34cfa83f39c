package analytics

import (
	"time"

	"sitepulse/internal/events"
	"sitepulse/internal/pkg/referrers"

	"gorm.io/gorm"
)

// SourceBreakdown is the per-bucket event count of the traffic-source
// classification, in bucket-precedence order.
type SourceBreakdown struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// TrafficSources classifies every event in [from, to) by referrer into
// exactly one bucket. In-memory reduction, O(events-in-window).
func TrafficSources(db *gorm.DB, scope Scope, from, to time.Time) ([]SourceBreakdown, error) {
	windowed, err := events.EventsInWindow(db, scope, from, to)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(referrers.Sources))
	for _, e := range windowed {
		counts[referrers.Classify(e.Referrer)]++
	}

	breakdown := make([]SourceBreakdown, len(referrers.Sources))
	for i, source := range referrers.Sources {
		breakdown[i] = SourceBreakdown{Source: source, Count: counts[source]}
	}
	return breakdown, nil
}

package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Session is the per-visitor reduction of the events inside a window.
// Sessions are derived on every call and never stored.
type Session struct {
	VisitorID  string
	FirstTS    time.Time
	LastTS     time.Time
	EventCount int64
}

// Duration returns the session span. Single-event sessions span zero.
func (s Session) Duration() time.Duration {
	return s.LastTS.Sub(s.FirstTS)
}

// IsBounce reports whether the visitor bounced: exactly one event in
// the window. Multiple events sharing one timestamp are not a bounce.
func (s Session) IsBounce() bool {
	return s.EventCount == 1
}

// ReconstructSessions groups all events for the scoped sites with
// created_at in [from, to) by visitor and reduces each group to its
// earliest timestamp, latest timestamp and event count.
func ReconstructSessions(db *gorm.DB, scope Scope, from, to time.Time) ([]Session, error) {
	if len(scope) == 0 {
		return nil, nil
	}

	var rows []struct {
		VisitorID  string
		FirstTS    time.Time
		LastTS     time.Time
		EventCount int64
	}

	query := `
        SELECT
            visitor_id,
            MIN(created_at) AS first_ts,
            MAX(created_at) AS last_ts,
            COUNT(*) AS event_count
        FROM events
        WHERE site_id IN ?
            AND created_at >= ? AND created_at < ?
        GROUP BY visitor_id
    `

	err := db.Raw(query, []string(scope), from.UTC(), to.UTC()).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error reconstructing sessions: %w", err)
	}

	sessions := make([]Session, len(rows))
	for i, r := range rows {
		sessions[i] = Session{
			VisitorID:  r.VisitorID,
			FirstTS:    r.FirstTS,
			LastTS:     r.LastTS,
			EventCount: r.EventCount,
		}
	}

	return sessions, nil
}

// AverageSessionDuration returns the mean session span in whole
// seconds over the given sessions, truncated. Single-event sessions
// count as zero duration; no sessions means zero.
func AverageSessionDuration(sessions []Session) int64 {
	if len(sessions) == 0 {
		return 0
	}
	var total float64
	for _, s := range sessions {
		total += s.Duration().Seconds()
	}
	return int64(total / float64(len(sessions)))
}

// BounceRate returns bounced / total * 100 rounded to one decimal
// place, or 0 when there are no sessions.
func BounceRate(sessions []Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	bounced := 0
	for _, s := range sessions {
		if s.IsBounce() {
			bounced++
		}
	}
	rate := float64(bounced) / float64(len(sessions)) * 100
	return roundOneDecimal(rate)
}

func roundOneDecimal(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

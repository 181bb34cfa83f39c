package analytics

import (
	"context"
	"fmt"
	"time"

	"sitepulse/internal/events"
	"sitepulse/internal/pkg/async"

	"gorm.io/gorm"
)

const (
	// LiveWindow is the trailing window for the "right now" count.
	LiveWindow = 5 * time.Minute
	// RecentWindow is the trailing window for the wider realtime view.
	RecentWindow = 30 * time.Minute
	// minuteBuckets covers 30 minutes ago through the current minute.
	minuteBuckets = 31
)

// MinutePoint is one bucket of the per-minute visitor series, labeled
// by the bucket's start time.
type MinutePoint struct {
	Minute   string `json:"minute"`
	Visitors int64  `json:"visitors"`
}

// RealtimeMetrics is the full realtime payload.
type RealtimeMetrics struct {
	ActiveVisitors5m  int64             `json:"active_visitors_5m"`
	ActiveVisitors30m int64             `json:"active_visitors_30m"`
	PageViews30m      int64             `json:"page_views_30m"`
	AvgDurationSecs   int64             `json:"avg_session_duration_seconds"`
	BounceRate        float64           `json:"bounce_rate"`
	MinuteSeries      []MinutePoint     `json:"minute_series"`
	Sources           []SourceBreakdown `json:"traffic_sources"`
	TopPages          []PageStat        `json:"top_pages"`
}

// MinuteSeries returns distinct active-visitor counts for the trailing
// 31 one-minute buckets ending at now, each labeled HH:MM by its start
// and covering [start, start+1m).
func MinuteSeries(db *gorm.DB, scope Scope, now time.Time) ([]MinutePoint, error) {
	start := now.UTC().Truncate(time.Minute).Add(-(minuteBuckets - 1) * time.Minute)
	windowed, err := events.EventsInWindow(db, scope, start, start.Add(minuteBuckets*time.Minute))
	if err != nil {
		return nil, err
	}

	perMinute := make([]map[string]struct{}, minuteBuckets)
	for i := range perMinute {
		perMinute[i] = make(map[string]struct{})
	}
	for _, e := range windowed {
		idx := int(e.CreatedAt.UTC().Sub(start) / time.Minute)
		if idx >= 0 && idx < minuteBuckets {
			perMinute[idx][e.VisitorID] = struct{}{}
		}
	}

	series := make([]MinutePoint, minuteBuckets)
	for i := range series {
		bucketStart := start.Add(time.Duration(i) * time.Minute)
		series[i] = MinutePoint{
			Minute:   bucketStart.Format("15:04"),
			Visitors: int64(len(perMinute[i])),
		}
	}
	return series, nil
}

// ActiveVisitors counts distinct visitors with at least one event in
// the trailing window ending at now.
func ActiveVisitors(db *gorm.DB, scope Scope, now time.Time, window time.Duration) (int64, error) {
	return events.CountDistinctVisitors(db, scope, now.Add(-window), now)
}

// GetRealtimeMetrics computes every realtime metric over the scope,
// fanning the independent queries out over a small worker pool. Any
// failure fails the whole call; no partial results.
func GetRealtimeMetrics(ctx context.Context, db *gorm.DB, scope Scope, now time.Time) (*RealtimeMetrics, error) {
	now = now.UTC()
	recentFrom := now.Add(-RecentWindow)

	tasks := []async.Task{
		{Name: "active_5m", Execute: func() (interface{}, error) {
			return ActiveVisitors(db, scope, now, LiveWindow)
		}},
		{Name: "active_30m", Execute: func() (interface{}, error) {
			return ActiveVisitors(db, scope, now, RecentWindow)
		}},
		{Name: "page_views", Execute: func() (interface{}, error) {
			return events.CountEventsOfType(db, scope, events.EventTypePageView, recentFrom, now)
		}},
		{Name: "sessions", Execute: func() (interface{}, error) {
			return ReconstructSessions(db, scope, recentFrom, now)
		}},
		{Name: "minute_series", Execute: func() (interface{}, error) {
			return MinuteSeries(db, scope, now)
		}},
		{Name: "sources", Execute: func() (interface{}, error) {
			return TrafficSources(db, scope, recentFrom, now)
		}},
		{Name: "top_pages", Execute: func() (interface{}, error) {
			return TopPages(db, scope, recentFrom, now)
		}},
	}

	results := pool().Execute(ctx, tasks)
	if len(results) != len(tasks) {
		return nil, ctx.Err()
	}
	if err := async.FirstError(results); err != nil {
		return nil, fmt.Errorf("error computing realtime metrics: %w", err)
	}

	sessions := results["sessions"].Data.([]Session)

	return &RealtimeMetrics{
		ActiveVisitors5m:  results["active_5m"].Data.(int64),
		ActiveVisitors30m: results["active_30m"].Data.(int64),
		PageViews30m:      results["page_views"].Data.(int64),
		AvgDurationSecs:   AverageSessionDuration(sessions),
		BounceRate:        BounceRate(sessions),
		MinuteSeries:      results["minute_series"].Data.([]MinutePoint),
		Sources:           results["sources"].Data.([]SourceBreakdown),
		TopPages:          results["top_pages"].Data.([]PageStat),
	}, nil
}

func pool() *async.Pool {
	return async.NewPool(4)
}

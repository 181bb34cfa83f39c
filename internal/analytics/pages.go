package analytics

import (
	"sort"
	"time"

	"sitepulse/internal/events"

	"gorm.io/gorm"
)

// TopPagesLimit caps the ranked page list.
const TopPagesLimit = 50

// PageStat is one page's slice of a window: raw event count, page-view
// count, distinct visitors and a per-page bounce rate.
type PageStat struct {
	PageURL    string  `json:"page_url"`
	Events     int64   `json:"events"`
	Views      int64   `json:"views"`
	Visitors   int64   `json:"visitors"`
	BounceRate float64 `json:"bounce_rate"`
}

// TopPages ranks the pages seen in [from, to) by distinct visitor
// count descending, ties broken by view count descending, capped at
// TopPagesLimit. A visitor bounces on a page when their only event in
// the entire window landed on that page. In-memory reduction,
// O(events-in-window).
func TopPages(db *gorm.DB, scope Scope, from, to time.Time) ([]PageStat, error) {
	windowed, err := events.EventsInWindow(db, scope, from, to)
	if err != nil {
		return nil, err
	}

	type pageAgg struct {
		events   int64
		views    int64
		visitors map[string]struct{}
		bounces  int64
	}

	pages := make(map[string]*pageAgg)
	visitorEvents := make(map[string]int64)
	visitorOnlyPage := make(map[string]string)

	for _, e := range windowed {
		agg, ok := pages[e.PageURL]
		if !ok {
			agg = &pageAgg{visitors: make(map[string]struct{})}
			pages[e.PageURL] = agg
		}
		agg.events++
		if e.EventType == events.EventTypePageView {
			agg.views++
		}
		agg.visitors[e.VisitorID] = struct{}{}

		visitorEvents[e.VisitorID]++
		visitorOnlyPage[e.VisitorID] = e.PageURL
	}

	// A bounce attributes to the page of the visitor's single event.
	for visitorID, count := range visitorEvents {
		if count == 1 {
			pages[visitorOnlyPage[visitorID]].bounces++
		}
	}

	stats := make([]PageStat, 0, len(pages))
	for url, agg := range pages {
		visitors := int64(len(agg.visitors))
		bounceRate := 0.0
		if visitors > 0 {
			bounceRate = roundOneDecimal(float64(agg.bounces) / float64(visitors) * 100)
		}
		stats = append(stats, PageStat{
			PageURL:    url,
			Events:     agg.events,
			Views:      agg.views,
			Visitors:   visitors,
			BounceRate: bounceRate,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Visitors != stats[j].Visitors {
			return stats[i].Visitors > stats[j].Visitors
		}
		return stats[i].Views > stats[j].Views
	})

	if len(stats) > TopPagesLimit {
		stats = stats[:TopPagesLimit]
	}
	return stats, nil
}

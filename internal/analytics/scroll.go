package analytics

import (
	"sort"
	"time"

	"sitepulse/internal/events"

	"gorm.io/gorm"
)

// ScrollBucketLabels in report order.
var ScrollBucketLabels = []string{"<50", "50-69", "70-89", "90-99", "100"}

// ScrollBucket is one depth bucket of the scroll distribution.
type ScrollBucket struct {
	Bucket   string `json:"bucket"`
	Count    int64  `json:"count"`
	Visitors int64  `json:"visitors"`
}

// PageScrollStat ranks a page by its average scroll depth.
type PageScrollStat struct {
	PageURL   string  `json:"page_url"`
	AvgScroll float64 `json:"avg_scroll"`
	Samples   int64   `json:"samples"`
}

// ScrollReport is the audience endpoint payload.
type ScrollReport struct {
	Buckets   []ScrollBucket   `json:"buckets"`
	AvgScroll float64          `json:"avg_scroll"`
	TopPages  []PageScrollStat `json:"top_pages_by_scroll"`
}

func scrollBucket(percent int) string {
	switch {
	case percent < 50:
		return "<50"
	case percent < 70:
		return "50-69"
	case percent < 90:
		return "70-89"
	case percent < 100:
		return "90-99"
	default:
		return "100"
	}
}

// ScrollDepth buckets every event carrying a scroll percentage in
// [from, to) into {<50, 50-69, 70-89, 90-99, 100}, reporting event and
// distinct-visitor counts per bucket, the overall mean scroll, and
// pages ranked by average scroll descending. In-memory reduction,
// O(events-in-window).
func ScrollDepth(db *gorm.DB, scope Scope, from, to time.Time) (*ScrollReport, error) {
	windowed, err := events.EventsInWindow(db, scope, from, to)
	if err != nil {
		return nil, err
	}

	type bucketAgg struct {
		count    int64
		visitors map[string]struct{}
	}
	type pageAgg struct {
		total   int64
		samples int64
	}

	buckets := make(map[string]*bucketAgg, len(ScrollBucketLabels))
	for _, label := range ScrollBucketLabels {
		buckets[label] = &bucketAgg{visitors: make(map[string]struct{})}
	}
	pages := make(map[string]*pageAgg)
	var sum, samples int64

	for _, e := range windowed {
		if e.ScrollPercent == nil {
			continue
		}
		percent := *e.ScrollPercent
		agg := buckets[scrollBucket(percent)]
		agg.count++
		agg.visitors[e.VisitorID] = struct{}{}

		page, ok := pages[e.PageURL]
		if !ok {
			page = &pageAgg{}
			pages[e.PageURL] = page
		}
		page.total += int64(percent)
		page.samples++

		sum += int64(percent)
		samples++
	}

	report := &ScrollReport{Buckets: make([]ScrollBucket, len(ScrollBucketLabels))}
	for i, label := range ScrollBucketLabels {
		agg := buckets[label]
		report.Buckets[i] = ScrollBucket{
			Bucket:   label,
			Count:    agg.count,
			Visitors: int64(len(agg.visitors)),
		}
	}
	if samples > 0 {
		report.AvgScroll = roundOneDecimal(float64(sum) / float64(samples))
	}

	report.TopPages = make([]PageScrollStat, 0, len(pages))
	for url, page := range pages {
		report.TopPages = append(report.TopPages, PageScrollStat{
			PageURL:   url,
			AvgScroll: roundOneDecimal(float64(page.total) / float64(page.samples)),
			Samples:   page.samples,
		})
	}
	sort.Slice(report.TopPages, func(i, j int) bool {
		if report.TopPages[i].AvgScroll != report.TopPages[j].AvgScroll {
			return report.TopPages[i].AvgScroll > report.TopPages[j].AvgScroll
		}
		return report.TopPages[i].Samples > report.TopPages[j].Samples
	})
	if len(report.TopPages) > TopPagesLimit {
		report.TopPages = report.TopPages[:TopPagesLimit]
	}

	return report, nil
}

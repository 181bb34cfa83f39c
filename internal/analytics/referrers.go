package analytics

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"sitepulse/internal/pkg/referrers"

	"gorm.io/gorm"
)

// ReferrerStat is one raw referrer's share of the report window.
type ReferrerStat struct {
	Referrer     string `json:"referrer"`
	FriendlyName string `json:"friendly_name"`
	Count        int64  `json:"count"`
	Visitors     int64  `json:"visitors"`
}

// ReferrerReport groups events by raw referrer string over [from, to).
// Empty referrers are reported as "Direct". Referrers containing
// ownDomain are dropped as internal navigation unless includeInternal
// is set.
func ReferrerReport(db *gorm.DB, scope Scope, from, to time.Time, ownDomain string, includeInternal bool) ([]ReferrerStat, error) {
	var rows []struct {
		Referrer string
		Count    int64
		Visitors int64
	}

	query := `
        SELECT
            referrer,
            COUNT(*) AS count,
            COUNT(DISTINCT visitor_id) AS visitors
        FROM events
        WHERE site_id IN ?
            AND created_at >= ? AND created_at < ?
        GROUP BY referrer
        ORDER BY count DESC
    `
	err := db.Raw(query, []string(scope), from.UTC(), to.UTC()).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching referrer report: %w", err)
	}

	ownDomain = strings.ToLower(strings.TrimSpace(ownDomain))
	stats := make([]ReferrerStat, 0, len(rows))
	for _, r := range rows {
		if r.Referrer == "" {
			stats = append(stats, ReferrerStat{
				Referrer:     "",
				FriendlyName: referrers.SourceDirect,
				Count:        r.Count,
				Visitors:     r.Visitors,
			})
			continue
		}
		if !includeInternal && ownDomain != "" && strings.Contains(strings.ToLower(r.Referrer), ownDomain) {
			continue
		}
		stats = append(stats, ReferrerStat{
			Referrer:     r.Referrer,
			FriendlyName: referrers.FriendlyName(referrerHostname(r.Referrer)),
			Count:        r.Count,
			Visitors:     r.Visitors,
		})
	}

	return stats, nil
}

func referrerHostname(referrer string) string {
	parsed, err := url.Parse(referrer)
	if err == nil && parsed.Hostname() != "" {
		return parsed.Hostname()
	}
	return referrer
}

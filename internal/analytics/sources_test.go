package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/pkg/referrers"
	"sitepulse/internal/testsupport"
)

func TestTrafficSources(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "sources.example.com")
	scope := analytics.Scope{site.SiteID}
	base := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)

	testsupport.InsertEvent(t, db, site.SiteID, "v1", "", "https://sources.example.com/", "https://www.google.com/search?q=x", base)
	testsupport.InsertEvent(t, db, site.SiteID, "v2", "", "https://sources.example.com/", "https://t.co/abc", base.Add(time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v3", "", "https://sources.example.com/", "", base.Add(2*time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v4", "", "https://sources.example.com/", "https://partner.example.org/post", base.Add(3*time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v5", "", "https://sources.example.com/", "mailto:news@list.example.org", base.Add(4*time.Minute))

	breakdown, err := analytics.TrafficSources(db, scope, base, base.Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, breakdown, len(referrers.Sources))

	counts := make(map[string]int64)
	var total int64
	for _, b := range breakdown {
		counts[b.Source] = b.Count
		total += b.Count
	}

	assert.Equal(t, int64(1), counts[referrers.SourceDirect])
	assert.Equal(t, int64(1), counts[referrers.SourceOrganic])
	assert.Equal(t, int64(1), counts[referrers.SourceSocial])
	assert.Equal(t, int64(1), counts[referrers.SourceEmail])
	assert.Equal(t, int64(1), counts[referrers.SourceReferral])

	// Every event lands in exactly one bucket.
	assert.Equal(t, int64(5), total)

	// Buckets come back in precedence order even when empty.
	for i, b := range breakdown {
		assert.Equal(t, referrers.Sources[i], b.Source)
	}
}

func TestTrafficSourcesEmptyWindow(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "quiet.example.com")

	base := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	breakdown, err := analytics.TrafficSources(db, analytics.Scope{site.SiteID}, base, base.Add(5*time.Minute))
	require.NoError(t, err)
	require.Len(t, breakdown, len(referrers.Sources))
	for _, b := range breakdown {
		assert.Zero(t, b.Count)
	}
}

package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/testsupport"
)

func TestReferrerReport(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "refs.example.com")
	scope := analytics.Scope{site.SiteID}
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	windowEnd := base.Add(30 * time.Minute)

	google := "https://www.google.com/search?q=x"
	internal := "https://refs.example.com/docs"

	testsupport.InsertEvent(t, db, site.SiteID, "v1", "", "https://refs.example.com/", google, base)
	testsupport.InsertEvent(t, db, site.SiteID, "v2", "", "https://refs.example.com/", google, base.Add(time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v2", "", "https://refs.example.com/", google, base.Add(2*time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v3", "", "https://refs.example.com/", "", base.Add(3*time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v1", "", "https://refs.example.com/about", internal, base.Add(4*time.Minute))

	t.Run("groups by raw referrer with friendly names", func(t *testing.T) {
		stats, err := analytics.ReferrerReport(db, scope, base, windowEnd, "refs.example.com", false)
		require.NoError(t, err)
		require.Len(t, stats, 2)

		assert.Equal(t, google, stats[0].Referrer)
		assert.Equal(t, "Google", stats[0].FriendlyName)
		assert.Equal(t, int64(3), stats[0].Count)
		assert.Equal(t, int64(2), stats[0].Visitors)

		assert.Empty(t, stats[1].Referrer)
		assert.Equal(t, "Direct", stats[1].FriendlyName)
		assert.Equal(t, int64(1), stats[1].Count)
	})

	t.Run("internal navigation is hidden by default", func(t *testing.T) {
		stats, err := analytics.ReferrerReport(db, scope, base, windowEnd, "refs.example.com", false)
		require.NoError(t, err)
		for _, s := range stats {
			assert.NotContains(t, s.Referrer, "refs.example.com")
		}
	})

	t.Run("include_internal keeps it", func(t *testing.T) {
		stats, err := analytics.ReferrerReport(db, scope, base, windowEnd, "refs.example.com", true)
		require.NoError(t, err)

		var found bool
		for _, s := range stats {
			if s.Referrer == internal {
				found = true
			}
		}
		assert.True(t, found)
	})
}

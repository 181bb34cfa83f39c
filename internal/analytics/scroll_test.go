package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/testsupport"
)

func TestScrollDepth(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "scroll.example.com")
	scope := analytics.Scope{site.SiteID}
	base := time.Date(2026, 8, 23, 14, 0, 0, 0, time.UTC)

	long := "https://scroll.example.com/long-read"
	landing := "https://scroll.example.com/"

	testsupport.InsertScrollEvent(t, db, site.SiteID, "v1", long, 100, base)
	testsupport.InsertScrollEvent(t, db, site.SiteID, "v2", long, 95, base.Add(time.Minute))
	testsupport.InsertScrollEvent(t, db, site.SiteID, "v3", landing, 70, base.Add(2*time.Minute))
	testsupport.InsertScrollEvent(t, db, site.SiteID, "v3", landing, 30, base.Add(3*time.Minute))
	// Page views without a scroll percentage never enter the report.
	testsupport.InsertEvent(t, db, site.SiteID, "v4", "", landing, "", base.Add(4*time.Minute))

	report, err := analytics.ScrollDepth(db, scope, base, base.Add(30*time.Minute))
	require.NoError(t, err)

	t.Run("buckets come back in report order", func(t *testing.T) {
		require.Len(t, report.Buckets, len(analytics.ScrollBucketLabels))
		for i, b := range report.Buckets {
			assert.Equal(t, analytics.ScrollBucketLabels[i], b.Bucket)
		}
	})

	t.Run("boundary percentages land in the right bucket", func(t *testing.T) {
		byLabel := make(map[string]analytics.ScrollBucket)
		for _, b := range report.Buckets {
			byLabel[b.Bucket] = b
		}
		assert.Equal(t, int64(1), byLabel["<50"].Count)
		assert.Equal(t, int64(0), byLabel["50-69"].Count)
		assert.Equal(t, int64(1), byLabel["70-89"].Count)
		assert.Equal(t, int64(1), byLabel["90-99"].Count)
		assert.Equal(t, int64(1), byLabel["100"].Count)
	})

	t.Run("distinct visitors per bucket", func(t *testing.T) {
		for _, b := range report.Buckets {
			assert.LessOrEqual(t, b.Visitors, b.Count)
		}
	})

	t.Run("mean over sampled events only", func(t *testing.T) {
		// (100 + 95 + 70 + 30) / 4
		assert.Equal(t, 73.8, report.AvgScroll)
	})

	t.Run("pages ranked by average scroll", func(t *testing.T) {
		require.Len(t, report.TopPages, 2)
		assert.Equal(t, long, report.TopPages[0].PageURL)
		assert.Equal(t, 97.5, report.TopPages[0].AvgScroll)
		assert.Equal(t, landing, report.TopPages[1].PageURL)
		assert.Equal(t, 50.0, report.TopPages[1].AvgScroll)
		assert.Equal(t, int64(2), report.TopPages[1].Samples)
	})
}

func TestScrollDepthEmptyWindow(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "noscroll.example.com")

	base := time.Date(2026, 8, 23, 14, 0, 0, 0, time.UTC)
	report, err := analytics.ScrollDepth(db, analytics.Scope{site.SiteID}, base, base.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.AvgScroll)
	assert.Empty(t, report.TopPages)
	require.Len(t, report.Buckets, len(analytics.ScrollBucketLabels))
	for _, b := range report.Buckets {
		assert.Zero(t, b.Count)
	}
}

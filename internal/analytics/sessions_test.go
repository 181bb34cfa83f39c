package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
	"sitepulse/internal/testsupport"
)

func TestReconstructSessions(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "sessions.example.com")
	scope := analytics.Scope{site.SiteID}
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	windowEnd := base.Add(30 * time.Minute)

	// v1 browses three pages over four minutes, v2 bounces.
	testsupport.InsertEvent(t, db, site.SiteID, "v1", "", "https://sessions.example.com/", "", base)
	testsupport.InsertEvent(t, db, site.SiteID, "v1", "", "https://sessions.example.com/a", "", base.Add(2*time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v1", "", "https://sessions.example.com/b", "", base.Add(4*time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v2", "", "https://sessions.example.com/", "", base.Add(1*time.Minute))

	t.Run("derives span and count per visitor", func(t *testing.T) {
		sessions, err := analytics.ReconstructSessions(db, scope, base, windowEnd)
		require.NoError(t, err)
		require.Len(t, sessions, 2)

		byVisitor := make(map[string]analytics.Session)
		for _, s := range sessions {
			byVisitor[s.VisitorID] = s
		}

		v1 := byVisitor["v1"]
		assert.Equal(t, int64(3), v1.EventCount)
		assert.Equal(t, 4*time.Minute, v1.Duration())
		assert.False(t, v1.IsBounce())

		v2 := byVisitor["v2"]
		assert.Equal(t, int64(1), v2.EventCount)
		assert.Equal(t, time.Duration(0), v2.Duration())
		assert.True(t, v2.IsBounce())
	})

	t.Run("is a pure function of the window", func(t *testing.T) {
		first, err := analytics.ReconstructSessions(db, scope, base, windowEnd)
		require.NoError(t, err)
		second, err := analytics.ReconstructSessions(db, scope, base, windowEnd)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("excludes events outside the window", func(t *testing.T) {
		sessions, err := analytics.ReconstructSessions(db, scope, base, base.Add(3*time.Minute))
		require.NoError(t, err)

		byVisitor := make(map[string]analytics.Session)
		for _, s := range sessions {
			byVisitor[s.VisitorID] = s
		}
		assert.Equal(t, int64(2), byVisitor["v1"].EventCount)
	})

	t.Run("empty scope yields no sessions", func(t *testing.T) {
		sessions, err := analytics.ReconstructSessions(db, analytics.Scope{}, base, windowEnd)
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestSessionAggregates(t *testing.T) {
	t.Run("average duration truncates to whole seconds", func(t *testing.T) {
		base := time.Now().UTC()
		sessions := []analytics.Session{
			{VisitorID: "a", FirstTS: base, LastTS: base.Add(10 * time.Second), EventCount: 2},
			{VisitorID: "b", FirstTS: base, LastTS: base.Add(5 * time.Second), EventCount: 3},
		}
		assert.Equal(t, int64(7), analytics.AverageSessionDuration(sessions))
	})

	t.Run("single-event sessions count as zero duration", func(t *testing.T) {
		base := time.Now().UTC()
		sessions := []analytics.Session{
			{VisitorID: "a", FirstTS: base, LastTS: base, EventCount: 1},
			{VisitorID: "b", FirstTS: base, LastTS: base.Add(30 * time.Second), EventCount: 2},
		}
		assert.Equal(t, int64(15), analytics.AverageSessionDuration(sessions))
	})

	t.Run("no sessions means zero duration and zero bounce rate", func(t *testing.T) {
		assert.Equal(t, int64(0), analytics.AverageSessionDuration(nil))
		assert.Equal(t, 0.0, analytics.BounceRate(nil))
	})

	t.Run("bounce rate stays within 0 and 100", func(t *testing.T) {
		base := time.Now().UTC()
		allBounced := []analytics.Session{
			{VisitorID: "a", FirstTS: base, LastTS: base, EventCount: 1},
			{VisitorID: "b", FirstTS: base, LastTS: base, EventCount: 1},
		}
		assert.Equal(t, 100.0, analytics.BounceRate(allBounced))

		noneBounced := []analytics.Session{
			{VisitorID: "a", FirstTS: base, LastTS: base.Add(time.Minute), EventCount: 2},
		}
		assert.Equal(t, 0.0, analytics.BounceRate(noneBounced))

		mixed := append(allBounced, noneBounced...)
		rate := analytics.BounceRate(mixed)
		assert.GreaterOrEqual(t, rate, 0.0)
		assert.LessOrEqual(t, rate, 100.0)
		assert.Equal(t, 66.7, rate)
	})

	t.Run("identical timestamps with multiple events is not a bounce", func(t *testing.T) {
		base := time.Now().UTC()
		s := analytics.Session{VisitorID: "a", FirstTS: base, LastTS: base, EventCount: 2}
		assert.False(t, s.IsBounce())
	})
}

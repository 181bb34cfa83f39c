package watermark_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/events"
	"sitepulse/internal/testsupport"
	"sitepulse/internal/watermark"
)

func TestGet(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	w, err := watermark.Get(db, "etl_export")
	require.NoError(t, err)
	assert.Equal(t, "etl_export", w.Name)
	assert.Zero(t, w.LastEventID)
}

func TestAdvance(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	now := time.Date(2026, 8, 27, 8, 0, 0, 0, time.UTC)

	t.Run("moves forward", func(t *testing.T) {
		require.NoError(t, watermark.Advance(db, "etl_export", 10, now))

		w, err := watermark.Get(db, "etl_export")
		require.NoError(t, err)
		assert.Equal(t, uint(10), w.LastEventID)
	})

	t.Run("stale advance is a no-op", func(t *testing.T) {
		require.NoError(t, watermark.Advance(db, "etl_export", 5, now.Add(time.Hour)))

		w, err := watermark.Get(db, "etl_export")
		require.NoError(t, err)
		assert.Equal(t, uint(10), w.LastEventID)
	})

	t.Run("markers are independent by name", func(t *testing.T) {
		require.NoError(t, watermark.Advance(db, "other_job", 3, now))

		w, err := watermark.Get(db, "other_job")
		require.NoError(t, err)
		assert.Equal(t, uint(3), w.LastEventID)

		w, err = watermark.Get(db, "etl_export")
		require.NoError(t, err)
		assert.Equal(t, uint(10), w.LastEventID)
	})
}

func TestLag(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	dbManager := testsupport.NewTestDBManager(db)
	logger := testsupport.GetLogger()
	site := testsupport.CreateTestSite(t, db, "lag.example.com")

	lag, err := watermark.Lag(db, "etl_export")
	require.NoError(t, err)
	assert.Zero(t, lag)

	var last *events.Event
	for _, visitor := range []string{"v1", "v2", "v3"} {
		last = testsupport.CollectTestEvent(t, dbManager, logger, &events.CollectEventInput{
			SiteID:    site.SiteID,
			VisitorID: visitor,
			PageURL:   "https://lag.example.com/",
		})
	}

	lag, err = watermark.Lag(db, "etl_export")
	require.NoError(t, err)
	assert.Equal(t, int64(3), lag)

	require.NoError(t, watermark.Advance(db, "etl_export", last.ID, last.CreatedAt))

	lag, err = watermark.Lag(db, "etl_export")
	require.NoError(t, err)
	assert.Zero(t, lag)
}

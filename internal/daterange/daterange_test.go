package daterange_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/daterange"
)

func TestParse(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 42, 0, 0, time.UTC)

	t.Run("explicit range is end-inclusive", func(t *testing.T) {
		r, err := daterange.Parse("2026-08-01", "2026-08-10", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), r.From)
		assert.Equal(t, time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC), r.To)
	})

	t.Run("missing end defaults to today", func(t *testing.T) {
		r, err := daterange.Parse("2026-08-25", "", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), r.From)
		assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), r.To)
	})

	t.Run("missing start defaults to the trailing week", func(t *testing.T) {
		r, err := daterange.Parse("", "2026-08-10", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC), r.From)
		assert.Equal(t, time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC), r.To)
	})

	t.Run("no dates gives the trailing week ending today", func(t *testing.T) {
		r, err := daterange.Parse("", "", now)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC), r.From)
		assert.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), r.To)
	})

	t.Run("single day range covers one day", func(t *testing.T) {
		r, err := daterange.Parse("2026-08-10", "2026-08-10", now)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, r.To.Sub(r.From))
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		_, err := daterange.Parse("2026-08-10", "2026-08-01", now)
		var invalid *daterange.InvalidRangeError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("garbage input is rejected", func(t *testing.T) {
		_, err := daterange.Parse("10-08-2026", "", now)
		var invalid *daterange.InvalidRangeError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, "10-08-2026", invalid.Value)

		_, err = daterange.Parse("", "yesterday", now)
		require.ErrorAs(t, err, &invalid)
	})
}

package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/settings"
	"sitepulse/internal/testsupport"
)

func TestGetSet(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	t.Run("unset key reads as empty", func(t *testing.T) {
		value, err := settings.Get(db, "missing")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		require.NoError(t, settings.Set(db, "retention_days", "90"))

		value, err := settings.Get(db, "retention_days")
		require.NoError(t, err)
		assert.Equal(t, "90", value)
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, settings.Set(db, "retention_days", "30"))

		value, err := settings.Get(db, "retention_days")
		require.NoError(t, err)
		assert.Equal(t, "30", value)
	})
}

func TestExcludedIPs(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	t.Run("empty by default", func(t *testing.T) {
		ips, err := settings.GetExcludedIPs(db)
		require.NoError(t, err)
		assert.Empty(t, ips)

		excluded, err := settings.IsIPExcluded(db, "203.0.113.7")
		require.NoError(t, err)
		assert.False(t, excluded)
	})

	t.Run("stores and matches exact IPs", func(t *testing.T) {
		require.NoError(t, settings.SetExcludedIPs(db, []string{"203.0.113.7", " 10.0.0.1 ", ""}))

		ips, err := settings.GetExcludedIPs(db)
		require.NoError(t, err)
		assert.Equal(t, []string{"203.0.113.7", "10.0.0.1"}, ips)

		excluded, err := settings.IsIPExcluded(db, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, excluded)

		excluded, err = settings.IsIPExcluded(db, "203.0.113.8")
		require.NoError(t, err)
		assert.False(t, excluded)
	})

	t.Run("empty ip is never excluded", func(t *testing.T) {
		excluded, err := settings.IsIPExcluded(db, "")
		require.NoError(t, err)
		assert.False(t, excluded)
	})
}

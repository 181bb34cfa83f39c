package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/analytics"
)

func TestScopeNarrow(t *testing.T) {
	scope := analytics.Scope{"site-a", "site-b"}

	t.Run("empty filter keeps the full scope", func(t *testing.T) {
		narrowed, err := scope.Narrow("")
		require.NoError(t, err)
		assert.Equal(t, scope, narrowed)
	})

	t.Run("authorized filter narrows to one site", func(t *testing.T) {
		narrowed, err := scope.Narrow("site-b")
		require.NoError(t, err)
		assert.Equal(t, analytics.Scope{"site-b"}, narrowed)
	})

	t.Run("unauthorized filter is rejected", func(t *testing.T) {
		_, err := scope.Narrow("site-c")
		require.Error(t, err)

		var unauthorized *analytics.UnauthorizedSiteError
		require.ErrorAs(t, err, &unauthorized)
		assert.Equal(t, "site-c", unauthorized.SiteID)
	})

	t.Run("empty scope rejects any filter", func(t *testing.T) {
		_, err := analytics.Scope{}.Narrow("site-a")
		assert.Error(t, err)
	})
}

func TestScopeContains(t *testing.T) {
	scope := analytics.Scope{"site-a"}
	assert.True(t, scope.Contains("site-a"))
	assert.False(t, scope.Contains("site-b"))
	assert.False(t, analytics.Scope{}.Contains("site-a"))
}

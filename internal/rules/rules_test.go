package rules_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/rules"
	"sitepulse/internal/testsupport"
)

func TestAddRule(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "rules.example.com")
	stranger := testsupport.CreateTestUser(t, db, "stranger@example.com")

	t.Run("owner can add a rule", func(t *testing.T) {
		rule, err := rules.AddRule(db, site.OwnerID, site.SiteID, "#signup", "", "signup_click")
		require.NoError(t, err)
		assert.NotZero(t, rule.ID)
		assert.Equal(t, "click", rule.EventType)
		assert.True(t, rule.Active)
	})

	t.Run("non-owner is rejected", func(t *testing.T) {
		_, err := rules.AddRule(db, stranger.ID, site.SiteID, "#buy", "", "buy_click")
		require.Error(t, err)

		var notOwner *rules.NotOwnerError
		require.ErrorAs(t, err, &notOwner)
		assert.Equal(t, site.SiteID, notOwner.SiteID)
	})
}

func TestSetActive(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "toggle.example.com")
	stranger := testsupport.CreateTestUser(t, db, "other@example.com")

	rule, err := rules.AddRule(db, site.OwnerID, site.SiteID, "#cta", "", "cta_click")
	require.NoError(t, err)

	t.Run("owner can deactivate", func(t *testing.T) {
		require.NoError(t, rules.SetActive(db, site.OwnerID, rule.ID, false))

		active, err := rules.ListActiveRules(db, site.SiteID)
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := rules.ListRules(db, site.SiteID)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.False(t, all[0].Active)
	})

	t.Run("non-owner cannot toggle", func(t *testing.T) {
		err := rules.SetActive(db, stranger.ID, rule.ID, true)
		var notOwner *rules.NotOwnerError
		require.ErrorAs(t, err, &notOwner)
	})

	t.Run("unknown rule", func(t *testing.T) {
		err := rules.SetActive(db, site.OwnerID, 9999, true)
		var notFound *rules.RuleNotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func TestListActiveRules(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "list.example.com")

	first, err := rules.AddRule(db, site.OwnerID, site.SiteID, "#a", "", "a_click")
	require.NoError(t, err)
	second, err := rules.AddRule(db, site.OwnerID, site.SiteID, "#b", "", "b_click")
	require.NoError(t, err)
	require.NoError(t, rules.SetActive(db, site.OwnerID, second.ID, false))

	active, err := rules.ListActiveRules(db, site.SiteID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	none, err := rules.ListActiveRules(db, "unknown-site")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAnalyzeRules(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	site := testsupport.CreateTestSite(t, db, "analyze.example.com")
	now := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)

	_, err := rules.AddRule(db, site.OwnerID, site.SiteID, "#signup", "", "signup_click")
	require.NoError(t, err)
	_, err = rules.AddRule(db, site.OwnerID, site.SiteID, "#never", "", "never_fired")
	require.NoError(t, err)

	// Triggers match on event_type equal to the rule's event_name.
	testsupport.InsertEvent(t, db, site.SiteID, "v1", "signup_click", "https://analyze.example.com/", "", now)
	testsupport.InsertEvent(t, db, site.SiteID, "v2", "signup_click", "https://analyze.example.com/", "", now.Add(time.Minute))
	testsupport.InsertEvent(t, db, site.SiteID, "v1", "page_view", "https://analyze.example.com/", "", now)

	analyses, err := rules.AnalyzeRules(db, site.SiteID)
	require.NoError(t, err)
	require.Len(t, analyses, 2)

	assert.Equal(t, int64(2), analyses[0].Triggers)
	require.NotNil(t, analyses[0].LastTrigger)
	assert.WithinDuration(t, now.Add(time.Minute), *analyses[0].LastTrigger, time.Millisecond)

	assert.Equal(t, int64(0), analyses[1].Triggers)
	assert.Nil(t, analyses[1].LastTrigger)
}

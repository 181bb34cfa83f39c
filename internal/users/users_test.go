package users_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitepulse/internal/testsupport"
	"sitepulse/internal/users"
)

func TestCreateUser(t *testing.T) {
	db := testsupport.SetupTestDB(t)

	user, err := users.CreateUser(db, "  Alice@Example.COM ", "hunter22")
	require.NoError(t, err)

	t.Run("normalizes the email", func(t *testing.T) {
		assert.Equal(t, "alice@example.com", user.Email)
	})

	t.Run("never stores the plaintext password", func(t *testing.T) {
		assert.NotContains(t, user.PasswordHash, "hunter22")
		assert.True(t, user.VerifyPassword("hunter22"))
		assert.False(t, user.VerifyPassword("wrong"))
	})

	t.Run("issues a prefixed api key", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(user.APIKey, "sp_"))
		assert.Len(t, user.APIKey, 35)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := users.CreateUser(db, "alice@example.com", "other")
		assert.Error(t, err)
	})
}

func TestGetUserByEmail(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	created, err := users.CreateUser(db, "bob@example.com", "secret")
	require.NoError(t, err)

	found, err := users.GetUserByEmail(db, "BOB@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = users.GetUserByEmail(db, "nobody@example.com")
	var notFound *users.UserNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nobody@example.com", notFound.Email)
}

func TestGetUserByAPIKey(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	created, err := users.CreateUser(db, "carol@example.com", "secret")
	require.NoError(t, err)

	found, err := users.GetUserByAPIKey(db, created.APIKey)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	var notFound *users.UserNotFoundError
	_, err = users.GetUserByAPIKey(db, "sp_bogus")
	require.ErrorAs(t, err, &notFound)

	_, err = users.GetUserByAPIKey(db, "")
	require.ErrorAs(t, err, &notFound)
}

func TestRotateAPIKey(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	created, err := users.CreateUser(db, "dave@example.com", "secret")
	require.NoError(t, err)

	rotated, err := users.RotateAPIKey(db, created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, created.APIKey, rotated)

	// The old key stops working, the new one resolves.
	var notFound *users.UserNotFoundError
	_, err = users.GetUserByAPIKey(db, created.APIKey)
	require.ErrorAs(t, err, &notFound)

	found, err := users.GetUserByAPIKey(db, rotated)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = users.RotateAPIKey(db, 9999)
	require.ErrorAs(t, err, &notFound)
}

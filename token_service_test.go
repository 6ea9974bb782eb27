package users_test

import (
	"testing"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceGenerate(t *testing.T) {
	svc := newTestTokenService()

	identity := testIdentity{
		id:     "b7a0a54a-92f8-4859-a1bc-c8a264e19c9c",
		email:  "pepe.rone@example.com",
		name:   "Pepe Rone",
		role:   users.RoleUser,
		active: true,
	}

	t.Run("access token round trips claims", func(t *testing.T) {
		token, err := svc.Generate(identity)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.Validate(token)
		require.NoError(t, err)

		assert.Equal(t, identity.ID(), claims.UserID())
		assert.Equal(t, identity.ID(), claims.Subject())
		assert.Equal(t, identity.Email(), claims.UserEmail())
		assert.False(t, claims.IsRecovery())
		assert.Empty(t, claims.Nonce())
	})

	t.Run("access token expires after the configured lifetime", func(t *testing.T) {
		token, err := svc.Generate(identity)
		require.NoError(t, err)

		claims, err := svc.Validate(token)
		require.NoError(t, err)

		expected := time.Now().Add(12 * time.Hour)
		assert.WithinDuration(t, expected, claims.Expires(), time.Minute)
	})

	t.Run("recovery token carries type and nonce", func(t *testing.T) {
		token, err := svc.GenerateRecovery(identity, time.Now().Add(users.RecoveryTokenTTL))
		require.NoError(t, err)

		claims, err := svc.Validate(token)
		require.NoError(t, err)

		assert.True(t, claims.IsRecovery())
		assert.NotEmpty(t, claims.Nonce())
		assert.Equal(t, identity.Email(), claims.UserEmail())
	})

	t.Run("recovery tokens minted back to back differ", func(t *testing.T) {
		expiresAt := time.Now().Add(users.RecoveryTokenTTL)

		first, err := svc.GenerateRecovery(identity, expiresAt)
		require.NoError(t, err)
		second, err := svc.GenerateRecovery(identity, expiresAt)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestTokenServiceValidate(t *testing.T) {
	svc := newTestTokenService()

	identity := testIdentity{
		id:    "b7a0a54a-92f8-4859-a1bc-c8a264e19c9c",
		email: "pepe.rone@example.com",
	}

	t.Run("rejects an expired token", func(t *testing.T) {
		token, err := svc.GenerateRecovery(identity, time.Now().Add(-time.Hour))
		require.NoError(t, err)

		_, err = svc.Validate(token)
		require.Error(t, err)
		assert.Equal(t, users.ErrTokenExpired, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := svc.Validate("not-a-token")
		require.Error(t, err)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		other := users.NewTokenService([]byte("different-secret"), 12, nil)
		token, err := other.Generate(identity)
		require.NoError(t, err)

		_, err = svc.Validate(token)
		require.Error(t, err)
	})
}

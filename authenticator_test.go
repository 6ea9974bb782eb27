package users_test

import (
	"context"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAuthenticatorVerifyCredentials(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	svc := newTestTokenService()
	authenticator := users.NewLocalAuthenticator(repo, svc)

	seedUser(t, repo, "known@example.com", "Known User", withPassword(t, "super-secret-1"))
	seedUser(t, repo, "no-pass@example.com", "No Password")

	ctx := context.Background()

	t.Run("accepts matching credentials", func(t *testing.T) {
		identity, err := authenticator.VerifyCredentials(ctx, "known@example.com", "super-secret-1")
		require.NoError(t, err)
		assert.Equal(t, "known@example.com", identity.Email())
		assert.Equal(t, users.RoleUser, identity.Role())
		assert.True(t, identity.Active())
	})

	t.Run("accepts mixed case email", func(t *testing.T) {
		identity, err := authenticator.VerifyCredentials(ctx, "Known@Example.COM", "super-secret-1")
		require.NoError(t, err)
		assert.Equal(t, "known@example.com", identity.Email())
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		_, err := authenticator.VerifyCredentials(ctx, "known@example.com", "wrong-password")
		assert.Equal(t, users.ErrInvalidCredentials, err)
	})

	t.Run("rejects an unknown email", func(t *testing.T) {
		_, err := authenticator.VerifyCredentials(ctx, "nobody@example.com", "super-secret-1")
		assert.Equal(t, users.ErrInvalidCredentials, err)
	})

	t.Run("rejects an account without a password", func(t *testing.T) {
		_, err := authenticator.VerifyCredentials(ctx, "no-pass@example.com", "anything-at-all")
		assert.Equal(t, users.ErrInvalidCredentials, err)
	})
}

func TestLocalAuthenticatorLogin(t *testing.T) {
	repo, cleanup := setupRepoManager(t)
	defer cleanup()

	svc := newTestTokenService()
	authenticator := users.NewLocalAuthenticator(repo, svc)

	active := seedUser(t, repo, "active@example.com", "Active User", withPassword(t, "super-secret-1"))
	seedUser(t, repo, "disabled@example.com", "Disabled User", withPassword(t, "super-secret-1"), inactive())

	ctx := context.Background()

	t.Run("issues a verifiable token", func(t *testing.T) {
		token, err := authenticator.Login(ctx, "active@example.com", "super-secret-1")
		require.NoError(t, err)

		claims, err := svc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, active.ID.String(), claims.UserID())
		assert.Equal(t, active.Email, claims.UserEmail())
		assert.False(t, claims.IsRecovery())
	})

	t.Run("rejects an inactive account with the right password", func(t *testing.T) {
		_, err := authenticator.Login(ctx, "disabled@example.com", "super-secret-1")
		assert.Equal(t, users.ErrAccountInactive, err)
	})

	t.Run("rejects bad credentials before checking status", func(t *testing.T) {
		_, err := authenticator.Login(ctx, "disabled@example.com", "wrong-password")
		assert.Equal(t, users.ErrInvalidCredentials, err)
	})
}

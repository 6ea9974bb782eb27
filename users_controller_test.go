package users_test

import (
	"encoding/json"
	"net/http"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAppWithAdmin(t *testing.T) (*testApp, string, func()) {
	t.Helper()

	ta, cleanup := setupApp(t)
	seedUser(t, ta.repo, "admin@example.com", "Admin", withPassword(t, "admin-password-1"))
	token := ta.signIn(t, "admin@example.com", "admin-password-1")
	return ta, token, cleanup
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUsersEndpointsRequireAuth(t *testing.T) {
	ta, cleanup := setupApp(t)
	defer cleanup()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/users/current"},
		{http.MethodGet, "/users"},
		{http.MethodPost, "/users"},
		{http.MethodGet, "/users/" + uuid.NewString()},
		{http.MethodGet, "/users/" + uuid.NewString() + "/toggle-active"},
		{http.MethodPut, "/users/some@example.com"},
		{http.MethodPatch, "/users/" + uuid.NewString()},
	}

	for _, tc := range paths {
		res, err := ta.app.Test(jsonRequest(t, tc.method, tc.path, map[string]string{}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestUsersCurrentEndpoint(t *testing.T) {
	ta, token, cleanup := setupAppWithAdmin(t)
	defer cleanup()

	res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users/current", nil), token))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, "admin@example.com", out["email"])
	assert.NotContains(t, out, "password_hash")
	assert.NotContains(t, out, "passwordHash")

	role, ok := out["role"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, users.RoleUser, role["code"])
}

func TestUsersCreateEndpoint(t *testing.T) {
	ta, token, cleanup := setupAppWithAdmin(t)
	defer cleanup()

	t.Run("creates and returns the user", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodPost, "/users", map[string]string{
			"email": "new.hire@example.com",
			"name":  "New Hire",
		}), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		out := map[string]any{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, "new.hire@example.com", out["email"])
		assert.Equal(t, true, out["isActive"])
		assert.NotContains(t, out, "token")
	})

	t.Run("duplicate email is a 409", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodPost, "/users", map[string]string{
			"email": "new.hire@example.com",
			"name":  "Impostor",
		}), token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("new account can claim its password through recovery", func(t *testing.T) {
		msgs := ta.recorder.byType(users.UserCreatedMessage{}.Type())
		require.Len(t, msgs, 1)
		recoveryToken := msgs[0].(users.UserCreatedMessage).Token
		require.NotEmpty(t, recoveryToken)

		// Sign in fails while the account has no password.
		res, err := ta.app.Test(jsonRequest(t, http.MethodPost, "/auth/sign-in", map[string]string{
			"email":    "new.hire@example.com",
			"password": "picked-password-1",
		}))
		require.NoError(t, err)
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)

		res, err = ta.app.Test(jsonRequest(t, http.MethodPost, "/auth/change-password", map[string]string{
			"token":          recoveryToken,
			"password":       "picked-password-1",
			"repeatPassword": "picked-password-1",
		}))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		ta.signIn(t, "new.hire@example.com", "picked-password-1")
	})
}

func TestUsersListEndpoint(t *testing.T) {
	ta, token, cleanup := setupAppWithAdmin(t)
	defer cleanup()

	seedUser(t, ta.repo, "zoe@example.com", "Zoe")
	seedUser(t, ta.repo, "yann@example.com", "Yann")

	t.Run("returns data and count", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users", nil), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		out := users.PaginatedUsers{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, 3, out.Count)
		assert.Len(t, out.Data, 3)
	})

	t.Run("honors term and paging", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users?term=zoe", nil), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		out := users.PaginatedUsers{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, 1, out.Count)
		require.Len(t, out.Data, 1)
		assert.Equal(t, "Zoe", out.Data[0].Name)

		res, err = ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users?offset=1&limit=2", nil), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		out = users.PaginatedUsers{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, 3, out.Count)
		assert.Len(t, out.Data, 1)
	})
}

func TestUsersGetEndpoint(t *testing.T) {
	ta, token, cleanup := setupAppWithAdmin(t)
	defer cleanup()

	account := seedUser(t, ta.repo, "findme@example.com", "Find Me")

	t.Run("returns the user", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users/"+account.ID.String(), nil), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		out := map[string]any{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, "findme@example.com", out["email"])
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users/"+uuid.NewString(), nil), token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users/not-a-uuid", nil), token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestUsersToggleActiveEndpoint(t *testing.T) {
	ta, token, cleanup := setupAppWithAdmin(t)
	defer cleanup()

	account := seedUser(t, ta.repo, "flip@example.com", "Flip")

	res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodGet, "/users/"+account.ID.String()+"/toggle-active", nil), token))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	assert.Equal(t, false, out["isActive"])
}

func TestUsersSetPasswordEndpoint(t *testing.T) {
	ta, token, cleanup := setupAppWithAdmin(t)
	defer cleanup()

	seedUser(t, ta.repo, "target@example.com", "Target", withPassword(t, "old-password-1"))

	t.Run("sets the password by email", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodPut, "/users/target@example.com", map[string]string{
			"password":       "fresh-password-1",
			"repeatPassword": "fresh-password-1",
		}), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		ta.signIn(t, "target@example.com", "fresh-password-1")
	})

	t.Run("mismatched confirmation is 400", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodPut, "/users/target@example.com", map[string]string{
			"password":       "fresh-password-1",
			"repeatPassword": "other-password-1",
		}), token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("unknown email is 404", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodPut, "/users/missing@example.com", map[string]string{
			"password":       "fresh-password-1",
			"repeatPassword": "fresh-password-1",
		}), token))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestUsersUpdateEndpoint(t *testing.T) {
	ta, token, cleanup := setupAppWithAdmin(t)
	defer cleanup()

	account := seedUser(t, ta.repo, "renameme@example.com", "Before")

	t.Run("patches name and active flag", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodPatch, "/users/"+account.ID.String(), map[string]any{
			"name":     "After",
			"isActive": false,
		}), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		out := map[string]any{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, "After", out["name"])
		assert.Equal(t, false, out["isActive"])
		// Email is not mutable through this endpoint.
		assert.Equal(t, "renameme@example.com", out["email"])
	})

	t.Run("absent fields stay untouched", func(t *testing.T) {
		res, err := ta.app.Test(bearer(jsonRequest(t, http.MethodPatch, "/users/"+account.ID.String(), map[string]any{
			"isActive": true,
		}), token))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		out := map[string]any{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		assert.Equal(t, "After", out["name"])
		assert.Equal(t, true, out["isActive"])
	})
}

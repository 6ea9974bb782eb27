package users_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches raw driver messages", func(t *testing.T) {
		assert.True(t, users.IsUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "users_email_key" (SQLSTATE=23505)`)))
		assert.True(t, users.IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	})

	t.Run("matches a repository error by text code", func(t *testing.T) {
		wrapped := goerrors.New("An unexpected error occurred.", goerrors.CategoryInternal).
			WithTextCode("DUPLICATE_KEY")
		assert.True(t, users.IsUniqueViolation(wrapped))
	})

	t.Run("matches a repository error through its source", func(t *testing.T) {
		wrapped := goerrors.New("An unexpected error occurred.", goerrors.CategoryInternal)
		wrapped.Source = errors.New("UNIQUE constraint failed: users.email")
		assert.True(t, users.IsUniqueViolation(wrapped))
	})

	t.Run("ignores unrelated errors", func(t *testing.T) {
		assert.False(t, users.IsUniqueViolation(nil))
		assert.False(t, users.IsUniqueViolation(errors.New("connection refused")))
		assert.False(t, users.IsUniqueViolation(goerrors.New("boom", goerrors.CategoryInternal)))
	})
}

func TestErrorHandlerStatuses(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: users.NewErrorHandler(nil),
	})
	app.Get("/timeout", func(c *fiber.Ctx) error {
		return goerrors.Wrap(
			context.DeadlineExceeded,
			goerrors.CategoryOperation,
			"context cancelled during user creation",
		)
	})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return users.ErrEmailTaken
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return goerrors.New("database exploded", goerrors.CategoryInternal)
	})

	t.Run("wrapped deadline maps to request timeout", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, "/timeout", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusRequestTimeout, res.StatusCode)
		assertWireError(t, res.Body, http.StatusRequestTimeout, "/timeout")
	})

	t.Run("conflict keeps its status and message", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, "/conflict", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, res.StatusCode)
		wire := assertWireError(t, res.Body, http.StatusConflict, "/conflict")
		assert.Equal(t, "email is already registered", wire.Message)
	})

	t.Run("internal errors hide their message", func(t *testing.T) {
		res, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		wire := assertWireError(t, res.Body, http.StatusInternalServerError, "/boom")
		assert.Equal(t, users.InternalErrorMessage, wire.Message)
	})
}

package users

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenGuard authenticates requests carrying a bearer token. Every
// failure is rejected with the same 401 so a caller learns nothing
// about accounts or token state from the response.
type TokenGuard struct {
	validator  TokenValidator
	users      Users
	contextKey string
	logger     Logger
}

func NewTokenGuard(validator TokenValidator, users Users, contextKey string) *TokenGuard {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	return &TokenGuard{
		validator:  validator,
		users:      users,
		contextKey: contextKey,
		logger:     defLogger{},
	}
}

func (g *TokenGuard) WithLogger(logger Logger) *TokenGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Protect returns the middleware that guards a route. On success the
// request carries a Current under the configured context key.
func (g *TokenGuard) Protect() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			g.logger.Debug("guard rejected request", "path", c.Path(), "error", err)
			return ErrUnauthorized
		}

		claims, err := g.validator.Validate(raw)
		if err != nil {
			g.logger.Debug("guard rejected token", "path", c.Path(), "error", err)
			return ErrUnauthorized
		}

		user, err := g.users.GetByEmail(c.UserContext(), claims.UserEmail(), WithRole())
		if err != nil {
			g.logger.Debug("guard could not resolve account", "path", c.Path(), "error", err)
			return ErrUnauthorized
		}

		if !user.IsActive {
			g.logger.Debug("guard rejected inactive account", "email", user.Email)
			return ErrUnauthorized
		}

		c.Locals(g.contextKey, &Current{
			ID:       user.ID,
			Email:    user.Email,
			RoleCode: user.RoleCode(),
		})

		return c.Next()
	}
}

// extractBearerToken pulls the token out of an Authorization header.
// The header must be exactly a scheme followed by a token.
func extractBearerToken(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", ErrTokenMissingOrMalformed
	}
	return parts[1], nil
}

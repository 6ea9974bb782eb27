package users

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// DefaultContextKey is where the guard stores the authenticated
// principal on the request context.
const DefaultContextKey = "current_user"

// Current is the authenticated principal attached to guarded requests.
type Current struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	RoleCode string    `json:"roleCode"`
}

// CurrentFromCtx retrieves the principal the guard attached. It fails
// with ErrUnauthorized when the route was reached without the guard.
func CurrentFromCtx(c *fiber.Ctx, contextKey string) (*Current, error) {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	current, ok := c.Locals(contextKey).(*Current)
	if !ok || current == nil {
		return nil, ErrUnauthorized
	}
	return current, nil
}

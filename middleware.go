package users

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// WithRequestDeadline bounds every request with a deadline propagated
// through the request context. Handlers that run past it fail with a
// 408 once the context cancels.
func WithRequestDeadline(timeout time.Duration) fiber.Handler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

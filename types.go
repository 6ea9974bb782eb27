package users

import (
	"context"
	"time"
)

// Identity is the minimal view of a user that token issuance needs.
type Identity interface {
	ID() string
	Email() string
	Name() string
	Role() string
	Active() bool
}

// TokenIssuer mints signed tokens for an identity.
type TokenIssuer interface {
	Generate(identity Identity) (string, error)
	GenerateRecovery(identity Identity, expiresAt time.Time) (string, error)
}

// TokenValidator parses and verifies a signed token.
type TokenValidator interface {
	Validate(tokenString string) (AuthClaims, error)
}

// TokenService issues and validates tokens.
type TokenService interface {
	TokenIssuer
	TokenValidator
}

// Config exposes the settings the package needs from the host app.
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetContextKey() string
}

// Message is a domain notification that can be dispatched to handlers.
type Message interface {
	Type() string
}

// Dispatcher fans a message out to its registered handlers.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) {}
func (d defLogger) Info(format string, args ...any)  {}
func (d defLogger) Warn(format string, args ...any)  {}
func (d defLogger) Error(format string, args ...any) {}

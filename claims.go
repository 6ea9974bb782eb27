package users

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RecoveryTokenType marks tokens minted for password recovery. The
// change-password flow refuses tokens without it, so a stolen access
// token can never reset a password.
const RecoveryTokenType = "recovery"

// AuthClaims is the verified payload of a token.
type AuthClaims interface {
	Subject() string
	UserID() string
	UserEmail() string
	Nonce() string
	IsRecovery() bool
	Expires() time.Time
	Issued() time.Time
}

// JWTClaims is the concrete claim set this package signs and parses.
type JWTClaims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	UID       string `json:"id,omitempty"`
	Hash      string `json:"hash,omitempty"`
	TokenType string `json:"type,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID prefers the explicit id claim, falling back to the subject.
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

func (c *JWTClaims) UserEmail() string {
	return c.Email
}

func (c *JWTClaims) Nonce() string {
	return c.Hash
}

func (c *JWTClaims) IsRecovery() bool {
	return c.TokenType == RecoveryTokenType
}

func (c *JWTClaims) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

func (c *JWTClaims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

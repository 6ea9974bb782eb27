package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is an account in the directory. PasswordHash never leaves the
// process: it is excluded from JSON and only selected when a flow
// explicitly needs credentials.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr" json:"-"`

	ID           uuid.UUID `bun:"id,pk,notnull" json:"id"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	Name         string    `bun:"name,notnull" json:"name"`
	PasswordHash string    `bun:"password_hash,nullzero" json:"-"`
	IsActive     bool      `bun:"is_active,notnull" json:"isActive"`
	RoleID       int       `bun:"role_id,nullzero,notnull" json:"-"`
	Role         *Role     `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// RoleCode returns the code of the associated role, or the empty
// string when the relation is not loaded.
func (u *User) RoleCode() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Code
}

// Role is a named permission bucket referenced by users.
type Role struct {
	bun.BaseModel `bun:"table:user_roles,alias:rol" json:"-"`

	ID          int    `bun:"id,pk,autoincrement" json:"id"`
	Code        string `bun:"code,notnull,unique" json:"code"`
	Name        string `bun:"name,notnull" json:"name"`
	Description string `bun:"description" json:"description,omitempty"`
}

// PasswordRecovery is the ledger row that makes a recovery token
// single use: finalizing a recovery deletes it, and a second attempt
// with the same token finds nothing to redeem.
type PasswordRecovery struct {
	bun.BaseModel `bun:"table:password_recoveries,alias:pwr" json:"-"`

	ID     int64     `bun:"id,pk,autoincrement" json:"id"`
	Token  string    `bun:"token,notnull" json:"-"`
	UserID uuid.UUID `bun:"user_id,notnull" json:"userId"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

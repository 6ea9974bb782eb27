package users

// Role codes seeded by the migrations.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// DefaultRoleID is assigned to users created without an explicit role.
// It matches the seeded "user" role.
const DefaultRoleID = 2

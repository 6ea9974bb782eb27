package users

import "embed"

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS exposes the embedded SQL migrations so callers can
// run them through bun's migrator.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

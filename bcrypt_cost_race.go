//go:build race

package users

import "golang.org/x/crypto/bcrypt"

// The race detector makes bcrypt at production cost painfully slow, so
// race builds fall back to the library default.
func passwordHashCost() int {
	return bcrypt.DefaultCost
}

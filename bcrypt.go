package users

import (
	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor used when hashing passwords.
// Tests may lower it to keep hashing cheap.
var HashCost = passwordHashCost()

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "unable to hash password")
	}
	return string(hash), nil
}

// ComparePasswordAndHash checks a plaintext password against a stored
// bcrypt hash. A mismatch comes back as ErrInvalidCredentials.
func ComparePasswordAndHash(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return errors.Wrap(err, errors.CategoryInternal, "unable to compare password hash")
}

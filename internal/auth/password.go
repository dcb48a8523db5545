package auth

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password. Costs below bcrypt.MinCost use
// bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

// PasswordMatches reports whether plain matches the stored hash. A malformed
// or empty hash never matches.
func PasswordMatches(hashed, plain string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

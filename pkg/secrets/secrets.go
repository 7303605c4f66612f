// Package secrets hashes and checks the administrator password.
package secrets

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	dErrors "aieni/pkg/domain-errors"
)

// IsHash reports whether s is already a bcrypt hash, so operators can put a
// hash rather than the plain password in configuration.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// Hash bcrypt-hashes a password at the given cost; cost <= 0 means
// bcrypt.DefaultCost. A value that is already a hash is returned as is.
func Hash(password string, cost int) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password cannot be empty")
	}
	if IsHash(password) {
		return password, nil
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	switch {
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return "", dErrors.New(dErrors.CodeValidation, "password is too long")
	case err != nil:
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash password")
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. A mismatch is CodeUnauthorized.
func Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return dErrors.New(dErrors.CodeUnauthorized, "invalid password")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "could not verify password")
}

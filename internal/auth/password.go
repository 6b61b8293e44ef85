package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid password")

// PasswordChecker verifies the admin password against its configured
// bcrypt hash.
type PasswordChecker struct {
	hash []byte
}

// NewPasswordChecker creates a checker for the given bcrypt hash.
func NewPasswordChecker(hash string) *PasswordChecker {
	return &PasswordChecker{hash: []byte(hash)}
}

// Check verifies the password. An empty configured hash rejects every
// attempt rather than accepting them.
func (c *PasswordChecker) Check(password string) error {
	if len(c.hash) == 0 {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword produces the bcrypt hash to put in the config file.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

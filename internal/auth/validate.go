package auth

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	maxEmailLen    = 254
	minPasswordLen = 8
	maxPasswordLen = 128

	minRefreshLen = 20
	maxRefreshLen = 500
)

// NormalizeEmail lowercases and trims so a@b.com and A@b.com collide on the
// unique index instead of registering twice.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || len(email) > maxEmailLen {
		return fmt.Errorf("%w: email", ErrValidation)
	}
	// ParseAddress also accepts "Name <a@b.com>"; only the bare address form
	// is a valid stored email.
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email", ErrValidation)
	}
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return fmt.Errorf("%w: password", ErrValidation)
	}
	return nil
}

func validateRefreshString(raw string) error {
	if len(raw) < minRefreshLen || len(raw) > maxRefreshLen {
		return fmt.Errorf("%w: refreshToken", ErrValidation)
	}
	return nil
}

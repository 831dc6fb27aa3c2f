package auth

import "errors"

// Every flow fails with exactly one of these; handlers map them to HTTP
// statuses. Login never says whether the email or the password was wrong.
var (
	ErrValidation         = errors.New("invalid payload")
	ErrConflict           = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrInvalidToken       = errors.New("invalid refresh token")
	ErrPrincipalNotFound  = errors.New("principal not found")
)

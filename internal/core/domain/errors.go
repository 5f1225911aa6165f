package domain

import "errors"

var (
	ErrAuthUnavailable    = errors.New("identity provider unavailable")
	ErrLogoutFailed       = errors.New("logout failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrUnsupportedMethod  = errors.New("unsupported sign-in method")
)

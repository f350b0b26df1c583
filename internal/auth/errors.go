package auth

import "errors"

// Registration rejects malformed input with the specific reason. Login folds
// every failure into ErrInvalidCredentials so callers cannot probe for accounts.
var (
	ErrInvalidEmail       = errors.New("email must contain @ and no path separators")
	ErrInvalidPassword    = errors.New("password must be between 6 and 72 characters")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound = errors.New("user not found")
	ErrUnauthorized = errors.New("unauthorized")
)

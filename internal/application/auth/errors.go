package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")

	ErrInvalidUsername = errors.New("Username must be 3-32 letters, digits, dots, dashes or underscores")
	ErrInvalidPassword = errors.New("Password must be at least 8 characters with a letter, a digit and a symbol")
	ErrInvalidRole     = errors.New("Role must be issuer or investor")
	ErrEmailTaken      = errors.New("Email already registered")
	ErrUsernameTaken   = errors.New("Username already registered")
)

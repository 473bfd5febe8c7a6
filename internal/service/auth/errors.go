package auth

import "errors"

// Common authentication errors
var (
	// ErrInvalidToken is returned when a token fails signature or claim
	// validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when a token has expired.
	ErrExpiredToken = errors.New("token expired")

	// ErrEmptySecret is returned when the service is configured without a
	// signing secret.
	ErrEmptySecret = errors.New("token secret cannot be empty")
)

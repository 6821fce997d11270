package store

import "errors"

// Error kinds raised by the stores. Callers test with errors.Is; the
// wrapped message carries the specifics.
var (
	// ErrValidation marks empty required text and undecodable
	// persisted documents.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a duplicate email at sign-up.
	ErrConflict = errors.New("already exists")

	// ErrAuth marks bad credentials and invalid or expired reset tokens.
	ErrAuth = errors.New("authentication failed")

	// ErrNotFound marks a password reset requested for an unknown email.
	ErrNotFound = errors.New("not found")
)

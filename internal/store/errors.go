package store

import "errors"

var (
	// ErrValidation indicates a required field was missing or empty after
	// trimming. Never retried; surfaced to the caller as a bad request.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates a uniqueness violation (duplicate username).
	ErrConflict = errors.New("conflict")

	// ErrNotFound indicates the referenced record does not exist for the
	// caller. A log owned by another user is reported identically to a log
	// that does not exist.
	ErrNotFound = errors.New("not found")
)

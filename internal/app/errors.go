package app

import "errors"

var (
	// ErrUnauthorized means a role predicate failed for the caller.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound means a referenced course, user or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation covers missing or malformed caller input. Recovered at
	// the boundary and surfaced as a user-facing message.
	ErrValidation = errors.New("validation failed")
)

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a rejected payload.
	ErrValidation = errors.New("validation failed")
	// ErrNoUser indicates no authenticated user could be resolved.
	ErrNoUser = errors.New("no authenticated user")
)

package v1

import "errors"

// Common API errors.
var (
	// ErrValidation marks locally detectable precondition violations: too few
	// elements, no governing standard, malformed paths. Surfaced, never
	// auto-corrected.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced id absent from the model store.
	ErrNotFound = errors.New("resource not found")

	ErrInvalidRequest = errors.New("invalid request")
	ErrTimeout        = errors.New("operation timed out")
)

package element

import "errors"

// Spec validation errors.
var (
	ErrKindRequired     = errors.New("element kind is required")
	ErrNotLineElement   = errors.New("element kind is not a routable line element")
	ErrNegativeSize     = errors.New("element sizes must not be negative")
	ErrDiameterRequired = errors.New("diameter_mm is required for round elements")
	ErrWidthRequired    = errors.New("width_mm is required for rectangular elements")
)

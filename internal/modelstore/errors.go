package modelstore

import (
	"fmt"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

// Store errors. They satisfy errors.Is against the pkg/api/v1 sentinels so
// the API boundary maps them uniformly.
var (
	ErrElementNotFound = fmt.Errorf("%w: element not found", apiv1.ErrNotFound)
	ErrEmptyElementID  = fmt.Errorf("%w: element id is required", apiv1.ErrValidation)
	ErrEmptyPath       = fmt.Errorf("%w: path must have at least two points", apiv1.ErrValidation)
)

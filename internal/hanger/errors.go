package hanger

import (
	"fmt"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

// Placement errors. All of them satisfy errors.Is against
// apiv1.ErrValidation so the API boundary maps them uniformly.
var (
	// ErrNoStandard means no hanger standard governs the element kind.
	ErrNoStandard = fmt.Errorf("%w: no hanger standard for element kind", apiv1.ErrValidation)

	// ErrNotSupportable means the element is not a line run hangers can carry.
	ErrNotSupportable = fmt.Errorf("%w: element has no supportable run geometry", apiv1.ErrValidation)

	// ErrTooFewElements means integrated placement was asked for fewer than
	// two usable elements.
	ErrTooFewElements = fmt.Errorf("%w: integrated hangers need at least two valid elements", apiv1.ErrValidation)
)

package routing

import (
	"fmt"
	"math"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"

	"github.com/fyrsmithlabs/mepd/internal/constraint"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// ValidatePath runs the pure path checks against a rule and aggregates the
// findings. Forbidden turn angles are hard errors; a vertex without room
// for its bend radius is a warning. The checks are independent, so a path
// can carry both kinds of finding at once.
func ValidatePath(points []geometry.Point3D, rule constraint.Rule) Findings {
	var f Findings
	if len(points) < 3 {
		return f
	}

	for i := 1; i < len(points)-1; i++ {
		turn := geometry.TurnAngle(points[i-1], points[i], points[i+1])
		for _, forbidden := range rule.ForbiddenAngles {
			if constraint.MatchesAngle(turn, forbidden) {
				f.errorf("vertex %d: turn angle %.1f matches forbidden angle %.0f", i, turn, forbidden)
				break
			}
		}

		if rule.BendRadiusM <= 0 {
			continue
		}
		shorter := math.Min(
			points[i-1].Distance(points[i]),
			points[i].Distance(points[i+1]),
		)
		if shorter < rule.BendRadiusM-geometry.Epsilon {
			f.warnf("vertex %d: segment of %.2f m leaves no room for bend radius %.2f m", i, shorter, rule.BendRadiusM)
		}
	}
	return f
}

// validatePath2D lifts a plan-view path to z=0 and validates it. Turn angles
// and segment lengths are unchanged by the lift.
func validatePath2D(points []geometry.Point2D, rule constraint.Rule) Findings {
	lifted := make([]geometry.Point3D, len(points))
	for i, p := range points {
		lifted[i] = p.At(0)
	}
	return ValidatePath(lifted, rule)
}

// ValidateCableTrayWidth checks a tray is wide enough for the cables it
// carries: width must be at least the cable bend radius times the minimum
// width ratio. The boundary value passes. A non-positive ratio falls back
// to the catalog default.
func ValidateCableTrayWidth(widthMM, cableBendRadiusMM, minWidthRatio float64) error {
	if widthMM <= 0 {
		return fmt.Errorf("%w: tray width must be positive, got %.0f", apiv1.ErrValidation, widthMM)
	}
	if cableBendRadiusMM < 0 {
		return fmt.Errorf("%w: cable bend radius must not be negative, got %.0f", apiv1.ErrValidation, cableBendRadiusMM)
	}
	if minWidthRatio <= 0 {
		minWidthRatio = constraint.DefaultTrayWidthRatio
	}

	required := cableBendRadiusMM * minWidthRatio
	if widthMM < required {
		return fmt.Errorf("%w: tray width %.0f mm below required %.0f mm (cable bend radius %.0f mm x ratio %.1f)",
			apiv1.ErrValidation, widthMM, required, cableBendRadiusMM, minWidthRatio)
	}
	return nil
}

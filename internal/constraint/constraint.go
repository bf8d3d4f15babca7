// Package constraint holds the routing rule catalog: per kind/system turn
// angle and bend rules, size-bracket bend radius tables, and the cable tray
// width ratio. Rules ship with built-in defaults and can be overridden from a
// YAML file, optionally hot-reloaded.
package constraint

import "math"

// Rule is the set of routing constraints applied to one (kind, system)
// combination. Angles are degrees, radii meters.
type Rule struct {
	// AllowedAngles is informational: it names the fitting angles available
	// for the run. It never blocks a path on its own.
	AllowedAngles []float64 `json:"allowed_angles,omitempty" koanf:"allowed_angles"`

	// ForbiddenAngles lists turn angles that hard-fail validation.
	ForbiddenAngles []float64 `json:"forbidden_angles,omitempty" koanf:"forbidden_angles"`

	// BendRadiusM is the minimum bend radius. Zero means derive it from the
	// element size via the bracket table.
	BendRadiusM float64 `json:"bend_radius_m,omitempty" koanf:"bend_radius_m"`

	// MinWidthRatio applies to cable trays: width must be at least
	// cable bend radius times this ratio.
	MinWidthRatio float64 `json:"min_width_ratio,omitempty" koanf:"min_width_ratio"`

	// RequiresDouble45 replaces ~90 degree corners with two 45 degree turns
	// to preserve drainage slope.
	RequiresDouble45 bool `json:"requires_double_45,omitempty" koanf:"requires_double_45"`
}

// DefaultAllowedAngles are the turn angles standard fittings come in.
var DefaultAllowedAngles = []float64{0, 30, 45, 60, 90}

// AngleToleranceDeg is how far a measured turn angle may deviate from a
// fitting angle and still validate.
const AngleToleranceDeg = 2.5

// SnapAngle returns the member of allowed nearest to angle. A nil or empty
// allowed set falls back to DefaultAllowedAngles.
func SnapAngle(angle float64, allowed []float64) float64 {
	if len(allowed) == 0 {
		allowed = DefaultAllowedAngles
	}
	best := allowed[0]
	bestDiff := math.Abs(angle - allowed[0])
	for _, a := range allowed[1:] {
		if d := math.Abs(angle - a); d < bestDiff {
			best, bestDiff = a, d
		}
	}
	return best
}

// ValidateAngle reports whether angle lies within AngleToleranceDeg of a
// member of allowed (or DefaultAllowedAngles when allowed is empty). Snapped
// angles always validate.
func ValidateAngle(angle float64, allowed []float64) bool {
	if len(allowed) == 0 {
		allowed = DefaultAllowedAngles
	}
	for _, a := range allowed {
		if math.Abs(angle-a) <= AngleToleranceDeg {
			return true
		}
	}
	return false
}

// MatchesAngle reports whether angle lies within AngleToleranceDeg of target.
func MatchesAngle(angle, target float64) bool {
	return math.Abs(angle-target) <= AngleToleranceDeg
}

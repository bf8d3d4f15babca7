// Package routing plans plan-view element runs and validates polyline paths
// against the constraint catalog. The planner is a deliberate simplification:
// a two segment orthogonal run rewritten to the element's fitting rules, not
// a pathfinder. Obstacles are prefiltered by bounding box and surfaced as
// warnings only.
package routing

import (
	"fmt"

	"github.com/fyrsmithlabs/mepd/internal/constraint"
	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// PatternDouble45 tags paths planned under the gravity drainage regime,
// where right angle corners are rewritten as two 45 degree turns to keep
// the slope continuous.
const PatternDouble45 = "double_45"

// Request describes one routing job in plan view.
type Request struct {
	Start geometry.Point2D `json:"start"`
	End   geometry.Point2D `json:"end"`
	Spec  element.Spec     `json:"spec"`

	// Constraints overlays the catalog rule resolved for Spec. Zero fields
	// keep the catalog values.
	Constraints constraint.Rule `json:"constraints"`

	// Obstacles are prefiltered by bounding box; they never steer the path.
	Obstacles []element.Obstacle `json:"obstacles,omitempty"`
}

// Path is a planned run plus everything the planner and validator found out
// about it. Geometry findings never abort planning; they accumulate in
// Warnings and Errors so a caller sees the whole picture in one pass.
type Path struct {
	Points      []geometry.Point2D `json:"points"`
	Constraints constraint.Rule    `json:"constraints"`
	Pattern     string             `json:"pattern,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Errors      []string           `json:"errors,omitempty"`
}

// Valid reports whether the path came out free of hard findings.
func (p Path) Valid() bool {
	return len(p.Errors) == 0
}

// Points3D lifts the planned points to model space at elevation z.
func (p Path) Points3D(z float64) []geometry.Point3D {
	out := make([]geometry.Point3D, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt.At(z)
	}
	return out
}

// Length returns the plan-view length of the path in meters.
func (p Path) Length() float64 {
	var total float64
	for i := 1; i < len(p.Points); i++ {
		total += p.Points[i-1].Distance(p.Points[i])
	}
	return total
}

// Findings is the aggregate output of the path checks. Errors block
// acceptance of a path, warnings do not.
type Findings struct {
	Warnings []string `json:"warnings,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

func (f *Findings) warnf(format string, args ...any) {
	f.Warnings = append(f.Warnings, fmt.Sprintf(format, args...))
}

func (f *Findings) errorf(format string, args ...any) {
	f.Errors = append(f.Errors, fmt.Sprintf(format, args...))
}

// Merge appends other's findings to f.
func (f *Findings) Merge(other Findings) {
	f.Warnings = append(f.Warnings, other.Warnings...)
	f.Errors = append(f.Errors, other.Errors...)
}

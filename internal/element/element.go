package element

import (
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// Element is a placed model element: a routed MEP run or a structural member.
// Sizes are millimeters; coordinates are meters.
type Element struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	System System `json:"system,omitempty"`
	Level  string `json:"level,omitempty"`

	// Priority overrides the system/kind default when in [1,5]. Zero means
	// unset.
	Priority int `json:"priority,omitempty"`

	// Path is the 3D centerline of an MEP run.
	Path []geometry.Point3D `json:"path,omitempty"`

	// Bounds is the envelope of a structural member. For MEP runs it is
	// derived from Path and the cross section instead.
	Bounds geometry.Box `json:"bounds,omitempty"`

	DiameterMM  float64 `json:"diameter_mm,omitempty"`
	WidthMM     float64 `json:"width_mm,omitempty"`
	HeightMM    float64 `json:"height_mm,omitempty"`
	BaseOffsetM float64 `json:"base_offset_m,omitempty"`
}

// HalfExtentM returns half the largest cross-section dimension in meters.
// Used to inflate the centerline into a clearance envelope.
func (e Element) HalfExtentM() float64 {
	max := e.DiameterMM
	if e.WidthMM > max {
		max = e.WidthMM
	}
	if e.HeightMM > max {
		max = e.HeightMM
	}
	return max / 2000 // mm to m, halved
}

// Envelope returns the element's axis-aligned bounding box. Structural
// members return their declared Bounds; MEP runs return the path bounds
// inflated by the half cross-section.
func (e Element) Envelope() geometry.Box {
	if e.Kind.IsStructural() || len(e.Path) == 0 {
		return e.Bounds
	}
	return geometry.BoundsOf(e.Path).Expand(e.HalfExtentM())
}

// SizeMeasure returns the magnitude used for conflict tie-breaks, per the
// kind's strategy profile.
func (e Element) SizeMeasure() float64 {
	return ProfileFor(e.Kind).SizeMeasure(e)
}

// SpacingSize returns the dimension hanger spacing brackets key on, per the
// kind's strategy profile.
func (e Element) SpacingSize() float64 {
	return ProfileFor(e.Kind).SpacingSize(e)
}

// StartZ returns the elevation of the run's first point, or the base offset
// when no path exists.
func (e Element) StartZ() float64 {
	if len(e.Path) > 0 {
		return e.Path[0].Z
	}
	return e.BaseOffsetM
}

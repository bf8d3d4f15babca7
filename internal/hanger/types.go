// Package hanger derives support placements for routed MEP runs: where along
// a run hangers go, what standard and detail govern them, and whether a run
// shares trapeze-style integrated hangers with its neighbors. Placements are
// persisted as hanger nodes plus relationships in the model store.
package hanger

import (
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// Type says how a hanger carries its load.
type Type string

const (
	// TypeSuspended hangs from structure above (beam or slab).
	TypeSuspended Type = "suspended"

	// TypeSupport bears on structure below (wall or column).
	TypeSupport Type = "support"
)

// Placement is one derived hanger. Integrated placements carry the member
// element ids and a shared space id; individual placements carry a single
// element id.
type Placement struct {
	ID           string           `json:"id"`
	Position     geometry.Point3D `json:"position"`
	Type         Type             `json:"hanger_type"`
	StandardCode string           `json:"standard_code"`
	DetailCode   string           `json:"detail_code"`
	SpacingM     float64          `json:"support_interval"`

	ElementID  string   `json:"element_id,omitempty"`
	ElementIDs []string `json:"supported_element_ids,omitempty"`
	SpaceID    string   `json:"space_id,omitempty"`
}

// Result is a placement batch plus the non-fatal findings collected while
// computing it.
type Result struct {
	Placements []Placement `json:"hangers"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// Config tunes placement behavior. Distances are meters, angles degrees.
type Config struct {
	// SeismicGrade scales support spacing down for braced installations.
	SeismicGrade SeismicGrade `json:"seismic_grade" koanf:"seismic_grade"`

	// EndpointToleranceM forces an endpoint hanger when the nearest computed
	// one sits further away than this along the run.
	EndpointToleranceM float64 `json:"endpoint_tolerance_m" koanf:"endpoint_tolerance_m"`

	// JointTurnDeg is the turn angle above which a vertex counts as a joint.
	JointTurnDeg float64 `json:"joint_turn_deg" koanf:"joint_turn_deg"`

	// JointClearanceM drops hangers closer than this to a joint.
	JointClearanceM float64 `json:"joint_clearance_m" koanf:"joint_clearance_m"`

	// JointSupportOffsetM is where forced joint-side hangers go, bounded by
	// the adjacent segment length.
	JointSupportOffsetM float64 `json:"joint_support_offset_m" koanf:"joint_support_offset_m"`

	// StructureSearchRadiusM is the plan-view radius for host structure
	// lookups when classifying a hanger.
	StructureSearchRadiusM float64 `json:"structure_search_radius_m" koanf:"structure_search_radius_m"`

	// StructureZToleranceM is how far structure may overlap the hanger
	// elevation and still count as above or below it.
	StructureZToleranceM float64 `json:"structure_z_tolerance_m" koanf:"structure_z_tolerance_m"`

	// GroupZToleranceM is the maximum elevation difference between members
	// of one integrated group.
	GroupZToleranceM float64 `json:"group_z_tolerance_m" koanf:"group_z_tolerance_m"`

	// GroupPlanarToleranceM is the configured plan-view gap between grouped
	// runs. The effective admission distance adds groupPlanarSlackM on top.
	GroupPlanarToleranceM float64 `json:"group_planar_tolerance_m" koanf:"group_planar_tolerance_m"`

	// CommonSegmentToleranceM is the longitudinal slack allowed when
	// matching member segments to the reference corridor, on top of the
	// planar admission distance.
	CommonSegmentToleranceM float64 `json:"common_segment_tolerance_m" koanf:"common_segment_tolerance_m"`

	// DedupeSpacingM collapses hangers closer than this to one.
	DedupeSpacingM float64 `json:"dedupe_spacing_m" koanf:"dedupe_spacing_m"`
}

// groupPlanarSlackM widens the configured planar tolerance when admitting
// group members. Runs routed a hair outside the configured gap still share
// trapezes in the field.
const groupPlanarSlackM = 0.5

// DefaultConfig returns the stock placement tuning.
func DefaultConfig() *Config {
	return &Config{
		SeismicGrade:            SeismicNone,
		EndpointToleranceM:      0.5,
		JointTurnDeg:            30,
		JointClearanceM:         0.3,
		JointSupportOffsetM:     0.5,
		StructureSearchRadiusM:  0.5,
		StructureZToleranceM:    0.5,
		GroupZToleranceM:        0.5,
		GroupPlanarToleranceM:   1.5,
		CommonSegmentToleranceM: 0.5,
		DedupeSpacingM:          0.5,
	}
}

// effectivePlanarTolerance is the admission distance for integrated groups.
func (c *Config) effectivePlanarTolerance() float64 {
	return c.GroupPlanarToleranceM + groupPlanarSlackM
}

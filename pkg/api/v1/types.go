// Package v1 defines the public wire types of the mepd API, shared by the
// HTTP handlers, MCP tools, and the mepctl client. Coordinates travel as
// fixed-size float arrays in meters; element sizes in millimeters.
package v1

// RouteRequest asks the planner for a constraint-compliant path between two
// plan-view points.
type RouteRequest struct {
	Start      [2]float64 `json:"start"`
	End        [2]float64 `json:"end"`
	Kind       string     `json:"kind"`
	System     string     `json:"system,omitempty"`
	DiameterMM float64    `json:"diameter_mm,omitempty"`
	WidthMM    float64    `json:"width_mm,omitempty"`
	HeightMM   float64    `json:"height_mm,omitempty"`
	Level      string     `json:"level,omitempty"`
}

// RouteConstraints echoes the constraints the planner applied.
type RouteConstraints struct {
	BendRadius float64 `json:"bend_radius,omitempty"`
	MinWidth   float64 `json:"min_width,omitempty"`
	Pattern    string  `json:"pattern,omitempty"`
}

// RouteResult is the wire shape of a routing response.
type RouteResult struct {
	PathPoints  [][2]float64     `json:"path_points"`
	Constraints RouteConstraints `json:"constraints"`
	Warnings    []string         `json:"warnings"`
	Errors      []string         `json:"errors"`
}

// DetectRequest scopes a collision scan.
type DetectRequest struct {
	Level             string   `json:"level"`
	ElementIDs        []string `json:"element_ids,omitempty"`
	IncludeStructures *bool    `json:"include_structures,omitempty"`
}

// CollisionPair is one classified colliding element pair. Pairs are reported
// in resolution order: beam_column, then structure, then mep.
type CollisionPair struct {
	ElementA string `json:"element_a"`
	ElementB string `json:"element_b"`
	Class    string `json:"class"`
}

// DetectResult lists the classified collisions found in a scope.
type DetectResult struct {
	Collisions []CollisionPair `json:"collisions"`
	Warnings   []string        `json:"warnings"`
}

// CoordinateRequest asks the resolver to detect and resolve collisions at a
// level.
type CoordinateRequest struct {
	Level             string   `json:"level"`
	ElementIDs        []string `json:"element_ids,omitempty"`
	IncludeStructures *bool    `json:"include_structures,omitempty"`
	GenerateHangers   *bool    `json:"generate_hangers,omitempty"`
}

// AdjustedElement records one displaced element with its audit trail.
type AdjustedElement struct {
	ElementID        string       `json:"element_id"`
	OriginalPath     [][3]float64 `json:"original_path"`
	AdjustedPath     [][3]float64 `json:"adjusted_path"`
	AdjustmentType   string       `json:"adjustment_type"`
	AdjustmentReason string       `json:"adjustment_reason"`
}

// CoordinationResult is the wire shape of a conflict resolution response.
type CoordinationResult struct {
	AdjustedElements   []AdjustedElement `json:"adjusted_elements"`
	CollisionsResolved int               `json:"collisions_resolved"`
	Warnings           []string          `json:"warnings"`
	Errors             []string          `json:"errors"`
}

// HangersRequest asks for hanger placements along one element.
type HangersRequest struct {
	ElementID    string `json:"element_id"`
	SeismicGrade string `json:"seismic_grade,omitempty"`
}

// IntegratedHangersRequest asks for shared hangers across parallel elements.
type IntegratedHangersRequest struct {
	ElementIDs   []string `json:"element_ids"`
	SeismicGrade string   `json:"seismic_grade,omitempty"`
}

// HangerResult is one placed hanger. Integrated hangers carry the supported
// element ids and a shared space id.
type HangerResult struct {
	ID                  string     `json:"id"`
	Position            [3]float64 `json:"position"`
	HangerType          string     `json:"hanger_type"`
	StandardCode        string     `json:"standard_code"`
	DetailCode          string     `json:"detail_code"`
	SupportInterval     float64    `json:"support_interval"`
	SupportedElementIDs []string   `json:"supported_element_ids,omitempty"`
	SpaceID             string     `json:"space_id,omitempty"`
}

// HangersResult is the wire shape of a hanger generation response.
type HangersResult struct {
	Hangers  []HangerResult `json:"hangers"`
	Warnings []string       `json:"warnings"`
}

// ConnectionCheckRequest asks whether two semantic types may be connected by
// a relationship.
type ConnectionCheckRequest struct {
	SourceType   string `json:"source_type"`
	TargetType   string `json:"target_type"`
	Relationship string `json:"relationship"`
}

// ConnectionCheckResult reports the semantic verdict and, when invalid, which
// relationships would be allowed instead.
type ConnectionCheckResult struct {
	Valid                bool     `json:"valid"`
	AllowedRelationships []string `json:"allowed_relationships"`
	Suggestion           string   `json:"suggestion,omitempty"`
}

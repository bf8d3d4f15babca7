package modelstore

import "github.com/fyrsmithlabs/mepd/internal/geometry"

// Relationship kinds the engines create.
const (
	RelSupports             = "supports"
	RelUsesIntegratedHanger = "uses_integrated_hanger"
)

// HangerNode is the persisted form of a hanger placement.
type HangerNode struct {
	ID           string           `json:"id"`
	Level        string           `json:"level,omitempty"`
	Position     geometry.Point3D `json:"position"`
	Type         string           `json:"type"`
	StandardCode string           `json:"standard_code"`
	DetailCode   string           `json:"detail_code"`
	SpacingM     float64          `json:"spacing_m"`
	SpaceID      string           `json:"space_id,omitempty"`
}

// Relationship is a directed edge between two model nodes.
type Relationship struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
	Kind   string `json:"kind"`
}

// Package conflict decides which member of a colliding pair yields and
// synthesizes the path adjustment that clears the hit. Structural members
// never move; among MEP runs the system priority table decides, then size,
// then pair order, so every batch resolves deterministically.
package conflict

import (
	"errors"

	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// DropM is how far a displaced run is translated downward.
const DropM = 0.2

// Mode selects the displacement strategy.
type Mode string

const (
	// ModeDown drops the displaced run below the winner.
	ModeDown Mode = "down"

	// ModeCloseToCeiling would raise the displaced run toward the slab
	// instead. Declared for configuration compatibility; not implemented.
	ModeCloseToCeiling Mode = "close_to_ceiling"
)

// ErrUnsupportedAdjustment is returned for displacement modes that are
// declared but not implemented.
var ErrUnsupportedAdjustment = errors.New("unsupported adjustment mode")

// AdjustmentType names how a path was changed.
type AdjustmentType string

const (
	AdjustHorizontal AdjustmentType = "horizontal_translation"
	AdjustVertical   AdjustmentType = "vertical_translation"
	AdjustAddBend    AdjustmentType = "add_bend"
)

// Adjustment records one applied displacement, keeping the original path
// for audit.
type Adjustment struct {
	ElementID    string             `json:"element_id"`
	OriginalPath []geometry.Point3D `json:"original_path"`
	AdjustedPath []geometry.Point3D `json:"adjusted_path"`
	Type         AdjustmentType     `json:"adjustment_type"`
	Reason       string             `json:"adjustment_reason"`
}

// Result aggregates a resolution batch. Skipped pairs surface in Errors,
// best-effort post-step failures in Warnings; neither aborts the batch.
type Result struct {
	Adjustments        []Adjustment `json:"adjusted_elements"`
	CollisionsResolved int          `json:"collisions_resolved"`
	Warnings           []string     `json:"warnings,omitempty"`
	Errors             []string     `json:"errors,omitempty"`
}

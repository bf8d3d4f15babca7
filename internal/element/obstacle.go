package element

import "github.com/fyrsmithlabs/mepd/internal/geometry"

// Obstacle is the prefilter view of a model object near a route: its plan
// footprint plus vertical extent. The planner treats obstacles strictly as
// bounding volumes, never as solids.
type Obstacle struct {
	ID              string             `json:"id"`
	Kind            Kind               `json:"kind"`
	Outline         []geometry.Point2D `json:"outline"`
	HeightM         float64            `json:"height_m"`
	BaseOffsetM     float64            `json:"base_offset_m"`
	Structural      bool               `json:"structural"`
	RestrictedSpace bool               `json:"restricted_space"`
}

// Footprint returns the plan-view bounding rect of the outline.
func (o Obstacle) Footprint() geometry.Rect {
	return geometry.RectOf(o.Outline)
}

// ObstacleOf derives the obstacle view of a placed element.
func ObstacleOf(e Element) Obstacle {
	env := e.Envelope()
	return Obstacle{
		ID:   e.ID,
		Kind: e.Kind,
		Outline: []geometry.Point2D{
			env.Min.XY(),
			{X: env.Max.X, Y: env.Min.Y},
			env.Max.XY(),
			{X: env.Min.X, Y: env.Max.Y},
		},
		HeightM:     env.Max.Z - env.Min.Z,
		BaseOffsetM: env.Min.Z,
		Structural:  e.Kind.IsStructural(),
	}
}

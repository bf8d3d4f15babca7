package collision

import (
	"context"

	"github.com/fyrsmithlabs/mepd/internal/element"
)

// AABB is the reference Intersector: two elements interfere when their
// axis-aligned envelopes overlap, optionally inflated by a clearance gap.
// It tests envelopes only; a finer backend can replace it without touching
// the detector.
type AABB struct {
	// ClearanceM inflates every envelope on all sides, so elements closer
	// than twice this distance count as interfering.
	ClearanceM float64
}

// Intersects implements Intersector.
func (x AABB) Intersects(_ context.Context, a, b element.Element) (bool, error) {
	ea := a.Envelope().Expand(x.ClearanceM)
	eb := b.Envelope().Expand(x.ClearanceM)
	return ea.Intersects(eb), nil
}

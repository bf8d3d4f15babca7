package routing

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"

	"github.com/fyrsmithlabs/mepd/internal/constraint"
	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// minBackoffM is the floor on the corner back-off distance used by the
// double-45 rewrite.
const minBackoffM = 0.2

// doubleFortyFiveTolDeg bounds which corners the rewrites treat as right
// angles.
const doubleFortyFiveTolDeg = 5.0

// Planner computes plan-view runs for line elements. It is stateless and safe
// for concurrent use.
type Planner struct {
	catalog *constraint.Catalog
	logger  *zap.Logger
	metrics *Metrics
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithLogger sets the planner logger.
func WithLogger(l *zap.Logger) PlannerOption {
	return func(p *Planner) {
		p.logger = l
	}
}

// WithMetrics sets custom metrics for the planner.
func WithMetrics(m *Metrics) PlannerOption {
	return func(p *Planner) {
		p.metrics = m
	}
}

// NewPlanner creates a planner over the given constraint catalog. A nil
// catalog falls back to the built-in rules.
func NewPlanner(catalog *constraint.Catalog, opts ...PlannerOption) *Planner {
	if catalog == nil {
		catalog = constraint.NewCatalog()
	}

	metrics, _ := NewMetrics(nil)
	p := &Planner{
		catalog: catalog,
		logger:  zap.NewNop(),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Route plans a run from req.Start to req.End. The base geometry is a two
// segment orthogonal path, rewritten per the effective rule: double-45
// corners for gravity-bound systems, otherwise a linear arc approximation
// when a bend radius applies. Geometry findings never fail the call; they
// land in the returned Path. The only errors are invalid input.
func (p *Planner) Route(ctx context.Context, req Request) (Path, error) {
	ctx, span := StartSpan(ctx, "routing.Route", string(req.Spec.Kind), string(req.Spec.System))
	defer span.End()

	if err := req.Spec.Validate(); err != nil {
		err = fmt.Errorf("%w: %s", apiv1.ErrValidation, err)
		RecordError(ctx, err)
		SetSpanStatus(ctx, codes.Error, "invalid spec")
		return Path{}, err
	}
	if req.Start.Equal(req.End) {
		err := fmt.Errorf("%w: start and end coincide", apiv1.ErrValidation)
		RecordError(ctx, err)
		SetSpanStatus(ctx, codes.Error, "degenerate endpoints")
		return Path{}, err
	}

	rule := constraint.Merge(p.catalog.Resolve(req.Spec), req.Constraints)

	path := Path{
		Points:      manhattan(req.Start, req.End),
		Constraints: rule,
	}

	switch {
	case rule.RequiresDouble45:
		path.Points = rewriteDouble45(path.Points, rule.BendRadiusM)
		path.Pattern = PatternDouble45
	case rule.BendRadiusM > 0:
		path.Points = rewriteArc(path.Points, rule.BendRadiusM)
	}

	var findings Findings
	checkObstacles(&findings, path.Points, req.Obstacles)
	findings.Merge(validatePath2D(path.Points, rule))
	path.Warnings = findings.Warnings
	path.Errors = findings.Errors

	p.metrics.RecordRoute(ctx, req.Spec.Kind, path.Pattern, len(path.Points), path.Length(), len(path.Warnings), len(path.Errors))
	p.logger.Debug("route planned",
		zap.String("kind", string(req.Spec.Kind)),
		zap.String("system", string(req.Spec.System)),
		zap.String("pattern", path.Pattern),
		zap.Int("points", len(path.Points)),
		zap.Float64("length_m", path.Length()),
		zap.Int("warnings", len(path.Warnings)),
		zap.Int("errors", len(path.Errors)),
	)
	SetSpanStatus(ctx, codes.Ok, "")
	return path, nil
}

// manhattan returns the two segment horizontal-then-vertical run, collapsing
// to a straight line when the endpoints share an axis.
func manhattan(start, end geometry.Point2D) []geometry.Point2D {
	corner := geometry.Point2D{X: end.X, Y: start.Y}
	if corner.Equal(start) || corner.Equal(end) {
		return []geometry.Point2D{start, end}
	}
	return []geometry.Point2D{start, corner, end}
}

// backoff is how far a corner rewrite retreats from the vertex: 1.5 times
// the bend radius with a 0.2 m floor. Keeping it above the bend radius
// means rewritten paths clear their own bend-radius validation.
func backoff(bendRadiusM float64) float64 {
	return math.Max(1.5*bendRadiusM, minBackoffM)
}

// rewriteDouble45 replaces every right angle corner with a two point
// deviation forming a pair of 45 degree turns.
func rewriteDouble45(pts []geometry.Point2D, bendRadiusM float64) []geometry.Point2D {
	return rewriteCorners(pts, func(a, b, c geometry.Point2D) []geometry.Point2D {
		d := clampBackoff(backoff(bendRadiusM), a, b, c)

		in := b.Sub(a).Unit()
		out := c.Sub(b).Unit()
		turn := 45.0
		if cross2D(in, out) < 0 {
			turn = -45.0
		}

		p1 := b.Sub(in.Scale(d))
		p2 := p1.Add(geometry.RotateXY(in, turn).Scale(d))
		return []geometry.Point2D{p1, p2}
	})
}

// rewriteArc replaces every right angle corner with a three point linear
// approximation of a circular fillet. Not a true arc.
func rewriteArc(pts []geometry.Point2D, bendRadiusM float64) []geometry.Point2D {
	return rewriteCorners(pts, func(a, b, c geometry.Point2D) []geometry.Point2D {
		d := clampBackoff(backoff(bendRadiusM), a, b, c)

		in := b.Sub(a).Unit()
		out := c.Sub(b).Unit()

		p1 := b.Sub(in.Scale(d))
		p3 := b.Add(out.Scale(d))
		center := p1.Add(out.Scale(d))
		mid := center.Add(b.Sub(center).Unit().Scale(d))
		return []geometry.Point2D{p1, mid, p3}
	})
}

// rewriteCorners applies replace to every interior vertex whose turn angle
// is within doubleFortyFiveTolDeg of a right angle, keeping all other
// vertices as they are.
func rewriteCorners(pts []geometry.Point2D, replace func(a, b, c geometry.Point2D) []geometry.Point2D) []geometry.Point2D {
	if len(pts) < 3 {
		return pts
	}
	out := make([]geometry.Point2D, 0, len(pts)+2)
	out = append(out, pts[0])
	for i := 1; i < len(pts)-1; i++ {
		a, b, c := pts[i-1], pts[i], pts[i+1]
		if math.Abs(geometry.TurnAngle2D(a, b, c)-90) > doubleFortyFiveTolDeg {
			out = append(out, b)
			continue
		}
		out = append(out, replace(a, b, c)...)
	}
	return append(out, pts[len(pts)-1])
}

// clampBackoff keeps a corner rewrite inside its adjacent segments.
func clampBackoff(d float64, a, b, c geometry.Point2D) float64 {
	d = math.Min(d, 0.5*a.Distance(b))
	return math.Min(d, 0.5*b.Distance(c))
}

func cross2D(u, v geometry.Point2D) float64 {
	return u.X*v.Y - u.Y*v.X
}

// checkObstacles records a warning for every obstacle whose footprint
// bounding box touches a path segment. This is prefiltering only; the
// planner never steers around obstacles.
func checkObstacles(f *Findings, pts []geometry.Point2D, obstacles []element.Obstacle) {
	for _, ob := range obstacles {
		box := ob.Footprint()
		for i := 1; i < len(pts); i++ {
			if !box.IntersectsSegment(pts[i-1], pts[i]) {
				continue
			}
			if ob.RestrictedSpace {
				f.warnf("segment %d crosses restricted space %q", i, ob.ID)
			} else {
				f.warnf("segment %d crosses bounding box of %s %q", i, ob.Kind, ob.ID)
			}
			break
		}
	}
}

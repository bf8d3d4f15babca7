package hanger

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
)

// Placer derives hanger placements for routed runs and persists them as
// hanger nodes plus relationships. Safe for concurrent use.
type Placer struct {
	store     modelstore.Store
	standards *Standards
	cfg       *Config
	logger    *zap.Logger
	metrics   *Metrics
}

// Option configures a Placer.
type Option func(*Placer)

// WithLogger sets the placer logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Placer) {
		p.logger = l
	}
}

// WithMetrics sets custom metrics for the placer.
func WithMetrics(m *Metrics) Option {
	return func(p *Placer) {
		p.metrics = m
	}
}

// WithStandards replaces the built-in standards catalog.
func WithStandards(s *Standards) Option {
	return func(p *Placer) {
		p.standards = s
	}
}

// WithConfig replaces the placement tuning.
func WithConfig(cfg *Config) Option {
	return func(p *Placer) {
		p.cfg = cfg
	}
}

// NewPlacer creates a placer over the given store.
func NewPlacer(store modelstore.Store, opts ...Option) *Placer {
	metrics, _ := NewMetrics(nil)
	p := &Placer{
		store:     store,
		standards: NewStandards(),
		cfg:       DefaultConfig(),
		logger:    zap.NewNop(),
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// WithGrade returns a placer identical to p with the seismic grade replaced.
// The receiver is unchanged; grades equal to the configured one return p
// itself.
func (p *Placer) WithGrade(grade SeismicGrade) *Placer {
	if grade == "" || grade == p.cfg.SeismicGrade {
		return p
	}
	cfg := *p.cfg
	cfg.SeismicGrade = grade
	clone := *p
	clone.cfg = &cfg
	return &clone
}

// Place derives hangers along one run and persists them. The run must be an
// MEP element with a routed path; wire runs have no governing standard and
// are rejected.
func (p *Placer) Place(ctx context.Context, elementID string) (*Result, error) {
	ctx, span := StartSpan(ctx, "hanger.Place", 1)
	defer span.End()

	el, err := p.store.Element(ctx, elementID)
	if err != nil {
		RecordError(ctx, err)
		return nil, err
	}

	placements, err := p.placeElement(ctx, el)
	if err != nil {
		RecordError(ctx, err)
		return nil, err
	}
	if err := p.persist(ctx, el.Level, placements); err != nil {
		RecordError(ctx, err)
		return nil, err
	}

	p.metrics.RecordPlacement(ctx, "individual", len(placements), 0)
	p.logger.Debug("placed hangers",
		zap.String("element_id", el.ID),
		zap.String("kind", string(el.Kind)),
		zap.Int("hangers", len(placements)),
	)
	SetSpanStatus(ctx, codes.Ok, "")
	return &Result{Placements: placements}, nil
}

// placeElement computes the placements for one run without persisting.
func (p *Placer) placeElement(ctx context.Context, el element.Element) ([]Placement, error) {
	if !el.Kind.IsMEP() || len(el.Path) < 2 {
		return nil, fmt.Errorf("%w: element %q is not a supportable run", ErrNotSupportable, el.ID)
	}

	std, err := p.standards.StandardFor(el.Kind)
	if err != nil {
		return nil, err
	}
	spacing, err := p.standards.SpacingFor(el.Kind, el.SpacingSize(), p.cfg.SeismicGrade)
	if err != nil {
		return nil, err
	}

	stations := spacingWalk(geometry.Length(el.Path), spacing, p.cfg.EndpointToleranceM)
	stations = adjustForJoints(stations, el.Path, p.cfg)

	detail := std.DetailFor(p.cfg.SeismicGrade)
	placements := make([]Placement, 0, len(stations))
	for _, d := range stations {
		pos := geometry.PointAt(el.Path, d)
		placements = append(placements, Placement{
			ID:           "hgr_" + uuid.New().String()[:8],
			Position:     pos,
			Type:         p.classify(ctx, el.Level, pos),
			StandardCode: std.Code,
			DetailCode:   detail,
			SpacingM:     spacing,
			ElementID:    el.ID,
		})
	}
	return placements, nil
}

// spacingWalk returns arc-length stations at every spacing interval from the
// run start, adding the far endpoint when the last interval leaves more than
// endTol of run uncovered.
func spacingWalk(length, spacing, endTol float64) []float64 {
	if spacing <= 0 || length <= 0 {
		return []float64{0}
	}
	var stations []float64
	for d := 0.0; d <= length+geometry.Epsilon; d += spacing {
		stations = append(stations, math.Min(d, length))
	}
	if length-stations[len(stations)-1] > endTol {
		stations = append(stations, length)
	}
	return stations
}

// joint is a path vertex sharp enough to need supports on both sides.
type joint struct {
	at     float64
	inLen  float64
	outLen float64
}

// jointStations returns the arc-length stations of vertices whose turn
// exceeds turnDeg.
func jointStations(path []geometry.Point3D, turnDeg float64) []joint {
	var joints []joint
	var walked float64
	for i := 1; i < len(path)-1; i++ {
		inLen := path[i-1].Distance(path[i])
		walked += inLen
		if geometry.TurnAngle(path[i-1], path[i], path[i+1]) > turnDeg {
			joints = append(joints, joint{
				at:     walked,
				inLen:  inLen,
				outLen: path[i].Distance(path[i+1]),
			})
		}
	}
	return joints
}

// adjustForJoints drops stations that land inside a joint's clearance and
// forces a support on each uncovered side of it, bounded by the adjacent
// segment length.
func adjustForJoints(stations []float64, path []geometry.Point3D, cfg *Config) []float64 {
	joints := jointStations(path, cfg.JointTurnDeg)
	if len(joints) == 0 {
		return stations
	}

	kept := make([]float64, 0, len(stations)+2*len(joints))
	for _, d := range stations {
		if nearestJoint(joints, d) < cfg.JointClearanceM {
			continue
		}
		kept = append(kept, d)
	}

	length := geometry.Length(path)
	for _, j := range joints {
		if !sideCovered(kept, j.at, cfg.JointSupportOffsetM, false) {
			d := math.Max(0, j.at-math.Min(cfg.JointSupportOffsetM, j.inLen))
			kept = append(kept, d)
		}
		if !sideCovered(kept, j.at, cfg.JointSupportOffsetM, true) {
			d := math.Min(length, j.at+math.Min(cfg.JointSupportOffsetM, j.outLen))
			kept = append(kept, d)
		}
	}

	sort.Float64s(kept)
	return kept
}

// nearestJoint returns the distance from station d to the closest joint.
func nearestJoint(joints []joint, d float64) float64 {
	best := math.MaxFloat64
	for _, j := range joints {
		if v := math.Abs(d - j.at); v < best {
			best = v
		}
	}
	return best
}

// sideCovered reports whether a station already sits within band of the
// joint on the given side.
func sideCovered(stations []float64, at, band float64, after bool) bool {
	for _, d := range stations {
		delta := at - d
		if after {
			delta = d - at
		}
		if delta >= 0 && delta <= band {
			return true
		}
	}
	return false
}

// classify picks the hanger type from the structure around a position:
// a beam or slab overhead means a suspended rod, a wall or column underneath
// means a bearing support. Lookup failures and bare positions default to
// suspended.
func (p *Placer) classify(ctx context.Context, level string, pos geometry.Point3D) Type {
	near, err := p.store.StructuresNear(ctx, level, pos, p.cfg.StructureSearchRadiusM)
	if err != nil {
		p.logger.Warn("structure lookup failed, defaulting to suspended",
			zap.String("level", level),
			zap.Error(err),
		)
		return TypeSuspended
	}

	tol := p.cfg.StructureZToleranceM
	var below bool
	for _, s := range near {
		env := s.Envelope()
		switch s.Kind {
		case element.KindBeam, element.KindSlab:
			if env.Min.Z >= pos.Z-tol {
				return TypeSuspended
			}
		case element.KindWall, element.KindColumn:
			if env.Max.Z <= pos.Z+tol {
				below = true
			}
		}
	}
	if below {
		return TypeSupport
	}
	return TypeSuspended
}

// persist writes placements as hanger nodes plus their element relationships.
// Individual placements point at their run with a supports edge; integrated
// placements are referenced by each member run instead.
func (p *Placer) persist(ctx context.Context, level string, placements []Placement) error {
	for _, pl := range placements {
		node := modelstore.HangerNode{
			ID:           pl.ID,
			Level:        level,
			Position:     pl.Position,
			Type:         string(pl.Type),
			StandardCode: pl.StandardCode,
			DetailCode:   pl.DetailCode,
			SpacingM:     pl.SpacingM,
			SpaceID:      pl.SpaceID,
		}
		if err := p.store.CreateHanger(ctx, node); err != nil {
			return fmt.Errorf("persist hanger: %w", err)
		}

		if pl.ElementID != "" {
			rel := modelstore.Relationship{FromID: pl.ID, ToID: pl.ElementID, Kind: modelstore.RelSupports}
			if err := p.store.CreateRelationship(ctx, rel); err != nil {
				return fmt.Errorf("persist hanger relationship: %w", err)
			}
		}
		for _, id := range pl.ElementIDs {
			rel := modelstore.Relationship{FromID: id, ToID: pl.ID, Kind: modelstore.RelUsesIntegratedHanger}
			if err := p.store.CreateRelationship(ctx, rel); err != nil {
				return fmt.Errorf("persist hanger relationship: %w", err)
			}
		}
	}
	return nil
}

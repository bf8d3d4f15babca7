package conflict

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/collision"
	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
)

// HangerRegenerator re-derives supports for elements whose geometry moved.
// The resolver treats it as best effort: failures become warnings.
type HangerRegenerator interface {
	Regenerate(ctx context.Context, elementIDs []string) error
}

// Resolver walks detected collision pairs in order and displaces the less
// important member of each. Safe for concurrent use.
type Resolver struct {
	store   modelstore.Store
	hangers HangerRegenerator
	mode    Mode
	logger  *zap.Logger
	metrics *Metrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the resolver logger.
func WithLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithMetrics sets custom metrics for the resolver.
func WithMetrics(m *Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithMode selects the displacement strategy.
func WithMode(mode Mode) ResolverOption {
	return func(r *Resolver) {
		r.mode = mode
	}
}

// WithHangerRegenerator wires the post-resolution hanger step. Without it
// the step is skipped.
func WithHangerRegenerator(h HangerRegenerator) ResolverOption {
	return func(r *Resolver) {
		r.hangers = h
	}
}

// WithoutHangers returns a resolver identical to r with the hanger post-step
// disabled. The receiver is unchanged.
func (r *Resolver) WithoutHangers() *Resolver {
	if r.hangers == nil {
		return r
	}
	clone := *r
	clone.hangers = nil
	return &clone
}

// NewResolver creates a resolver over the given store.
func NewResolver(store modelstore.Store, opts ...ResolverOption) *Resolver {
	metrics, _ := NewMetrics(nil)
	r := &Resolver{
		store:   store,
		mode:    ModeDown,
		logger:  zap.NewNop(),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve processes pairs in detector order. Each resolved pair drops the
// yielding run DropM meters and persists the new geometry; the displaced
// element's hangers are regenerated afterwards, best effort. A pair that
// cannot be resolved is recorded in Result.Errors and skipped; the batch
// always continues.
func (r *Resolver) Resolve(ctx context.Context, pairs []collision.Pair) (Result, error) {
	ctx, span := StartSpan(ctx, "conflict.Resolve", len(pairs))
	defer span.End()

	if r.mode != ModeDown {
		err := fmt.Errorf("%w: %q", ErrUnsupportedAdjustment, r.mode)
		RecordError(ctx, err)
		SetSpanStatus(ctx, codes.Error, "unsupported mode")
		return Result{}, err
	}

	var res Result
	var displaced []string
	seen := make(map[string]bool)

	for _, pair := range pairs {
		adj, err := r.resolvePair(ctx, pair)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("pair %s/%s: %v", pair.A, pair.B, err))
			r.logger.Warn("collision pair skipped",
				zap.String("a", pair.A),
				zap.String("b", pair.B),
				zap.Error(err),
			)
			continue
		}

		res.Adjustments = append(res.Adjustments, adj)
		res.CollisionsResolved++
		if !seen[adj.ElementID] {
			seen[adj.ElementID] = true
			displaced = append(displaced, adj.ElementID)
		}
	}

	if r.hangers != nil && len(displaced) > 0 {
		if err := r.hangers.Regenerate(ctx, displaced); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("hanger regeneration: %v", err))
			r.metrics.RecordHangerRegenFailure(ctx)
			r.logger.Warn("hanger regeneration failed after resolution",
				zap.Strings("elements", displaced),
				zap.Error(err),
			)
		}
	}

	r.metrics.RecordResolution(ctx, len(pairs), res.CollisionsResolved, len(res.Errors))
	r.logger.Info("conflict resolution finished",
		zap.Int("pairs", len(pairs)),
		zap.Int("resolved", res.CollisionsResolved),
		zap.Int("skipped", len(res.Errors)),
	)
	SetSpanStatus(ctx, codes.Ok, "")
	return res, nil
}

// resolvePair picks the yielding member, synthesizes its displacement, and
// persists it.
func (r *Resolver) resolvePair(ctx context.Context, pair collision.Pair) (Adjustment, error) {
	a, err := r.store.Element(ctx, pair.A)
	if err != nil {
		return Adjustment{}, fmt.Errorf("load %q: %w", pair.A, err)
	}
	b, err := r.store.Element(ctx, pair.B)
	if err != nil {
		return Adjustment{}, fmt.Errorf("load %q: %w", pair.B, err)
	}

	loser, reason, err := pick(a, b)
	if err != nil {
		return Adjustment{}, err
	}
	if len(loser.Path) < 2 {
		return Adjustment{}, fmt.Errorf("element %q has no routable geometry", loser.ID)
	}

	adj := Adjustment{
		ElementID:    loser.ID,
		OriginalPath: loser.Path,
		AdjustedPath: translateZ(loser.Path, -DropM),
		Type:         AdjustVertical,
		Reason:       reason,
	}
	if err := r.store.UpdateGeometry(ctx, loser.ID, adj.AdjustedPath); err != nil {
		return Adjustment{}, fmt.Errorf("persist adjustment for %q: %w", loser.ID, err)
	}
	return adj, nil
}

// pick chooses which member yields. Structural members never move; among
// MEP runs lower priority number wins, then the larger size measure, then
// the pair's first member yields.
func pick(a, b element.Element) (element.Element, string, error) {
	aStruct, bStruct := a.Kind.IsStructural(), b.Kind.IsStructural()
	switch {
	case aStruct && bStruct:
		return element.Element{}, "", fmt.Errorf("both members structural")
	case aStruct:
		return b, fmt.Sprintf("yields to structural %s %s", a.Kind, a.ID), nil
	case bStruct:
		return a, fmt.Sprintf("yields to structural %s %s", b.Kind, b.ID), nil
	}

	pa, pb := PriorityOf(a), PriorityOf(b)
	if pa != pb {
		if pa > pb {
			return a, fmt.Sprintf("yields to %s: priority %d vs %d", b.ID, pa, pb), nil
		}
		return b, fmt.Sprintf("yields to %s: priority %d vs %d", a.ID, pb, pa), nil
	}

	sa, sb := a.SizeMeasure(), b.SizeMeasure()
	if sa != sb {
		if sa < sb {
			return a, fmt.Sprintf("yields to %s: smaller run at equal priority", b.ID), nil
		}
		return b, fmt.Sprintf("yields to %s: smaller run at equal priority", a.ID), nil
	}

	return a, fmt.Sprintf("yields to %s: first of pair at equal priority and size", b.ID), nil
}

// translateZ returns a copy of path shifted vertically by dz.
func translateZ(path []geometry.Point3D, dz float64) []geometry.Point3D {
	out := make([]geometry.Point3D, len(path))
	for i, p := range path {
		out[i] = geometry.Point3D{X: p.X, Y: p.Y, Z: p.Z + dz}
	}
	return out
}

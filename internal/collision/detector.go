package collision

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
)

// Detector runs pairwise interference checks over a level's elements. It is
// stateless apart from its collaborators and safe for concurrent use.
type Detector struct {
	store       modelstore.Store
	intersector Intersector
	logger      *zap.Logger
	metrics     *Metrics
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithLogger sets the detector logger.
func WithLogger(l *zap.Logger) DetectorOption {
	return func(d *Detector) {
		d.logger = l
	}
}

// WithMetrics sets custom metrics for the detector.
func WithMetrics(m *Metrics) DetectorOption {
	return func(d *Detector) {
		d.metrics = m
	}
}

// WithIntersector swaps the overlap predicate. The default is the AABB
// reference intersector with no clearance.
func WithIntersector(x Intersector) DetectorOption {
	return func(d *Detector) {
		d.intersector = x
	}
}

// NewDetector creates a detector over the given store.
func NewDetector(store modelstore.Store, opts ...DetectorOption) *Detector {
	metrics, _ := NewMetrics(nil)
	d := &Detector{
		store:       store,
		intersector: AABB{},
		logger:      zap.NewNop(),
		metrics:     metrics,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the interfering pairs among the level's MEP elements,
// ordered for resolution: beam and column hits first, then other structure,
// then MEP against MEP. An empty elementIDs means every MEP element on the
// level; explicit IDs narrow the set. When includeStructures is true the
// level's structural members are tested against the MEP candidates as well.
// A predicate failure skips that pair and logs; it never aborts the batch.
func (d *Detector) Detect(ctx context.Context, level string, elementIDs []string, includeStructures bool) ([]Pair, error) {
	ctx, span := StartSpan(ctx, "collision.Detect", level)
	defer span.End()

	candidates, err := d.candidates(ctx, level, elementIDs)
	if err != nil {
		RecordError(ctx, err)
		SetSpanStatus(ctx, codes.Error, "candidate query failed")
		return nil, err
	}

	pool := candidates
	if includeStructures {
		structures, err := d.store.ElementsByLevel(ctx, level,
			element.KindBeam, element.KindColumn, element.KindWall, element.KindSlab)
		if err != nil {
			RecordError(ctx, err)
			SetSpanStatus(ctx, codes.Error, "structure query failed")
			return nil, fmt.Errorf("load structures for level %q: %w", level, err)
		}
		pool = append(append([]element.Element{}, candidates...), structures...)
	}

	var pairs []Pair
	var skipped int
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			a, b := pool[i], pool[j]
			if a.ID == b.ID {
				continue
			}
			// Structure against structure is not ours to resolve.
			if a.Kind.IsStructural() && b.Kind.IsStructural() {
				continue
			}

			hit, err := d.intersector.Intersects(ctx, a, b)
			if err != nil {
				skipped++
				d.logger.Warn("intersector failed, skipping pair",
					zap.String("a", a.ID),
					zap.String("b", b.ID),
					zap.Error(err),
				)
				continue
			}
			if hit {
				pairs = append(pairs, NewPair(a.ID, b.ID, Classify(a.Kind, b.Kind)))
			}
		}
	}

	sortPairs(pairs)

	d.metrics.RecordDetection(ctx, level, len(pool), len(pairs), skipped)
	d.logger.Debug("collision detection finished",
		zap.String("level", level),
		zap.Int("candidates", len(pool)),
		zap.Int("pairs", len(pairs)),
		zap.Int("skipped", skipped),
	)
	SetSpanStatus(ctx, codes.Ok, "")
	return pairs, nil
}

// candidates resolves the MEP element set under test.
func (d *Detector) candidates(ctx context.Context, level string, elementIDs []string) ([]element.Element, error) {
	if len(elementIDs) == 0 {
		els, err := d.store.ElementsByLevel(ctx, level, element.MEPKinds()...)
		if err != nil {
			return nil, fmt.Errorf("load elements for level %q: %w", level, err)
		}
		return els, nil
	}

	els := make([]element.Element, 0, len(elementIDs))
	for _, id := range elementIDs {
		el, err := d.store.Element(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load element %q: %w", id, err)
		}
		els = append(els, el)
	}
	return els, nil
}

// sortPairs orders pairs by resolution class, then by IDs so batches are
// deterministic.
func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Class.rank() != pairs[j].Class.rank() {
			return pairs[i].Class.rank() < pairs[j].Class.rank()
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
}

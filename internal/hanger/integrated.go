package hanger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// PlaceIntegrated derives trapeze hangers shared by parallel runs. The runs
// are bucketed into groups by elevation and plan-view proximity; each group
// gets shared placements along its common corridor, and runs that end up
// alone in a group fall back to individual hangers. Everything is persisted
// before returning.
func (p *Placer) PlaceIntegrated(ctx context.Context, elementIDs []string) (*Result, error) {
	ctx, span := StartSpan(ctx, "hanger.PlaceIntegrated", len(elementIDs))
	defer span.End()

	res := &Result{}
	var candidates []element.Element
	for _, id := range elementIDs {
		el, err := p.store.Element(ctx, id)
		if err != nil {
			RecordError(ctx, err)
			return nil, err
		}
		if !el.Kind.IsMEP() || len(el.Path) < 2 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("element %q is not a supportable run, skipped", id))
			continue
		}
		candidates = append(candidates, el)
	}
	if len(candidates) < 2 {
		err := fmt.Errorf("%w: need at least two supportable runs, have %d", ErrTooFewElements, len(candidates))
		RecordError(ctx, err)
		return nil, err
	}

	groups := p.groupParallel(candidates)
	for _, group := range groups {
		if len(group) == 1 {
			placements, err := p.placeElement(ctx, group[0])
			if err != nil {
				RecordError(ctx, err)
				return nil, err
			}
			res.Placements = append(res.Placements, placements...)
			continue
		}
		placements, warnings, err := p.placeGroup(ctx, group)
		if err != nil {
			RecordError(ctx, err)
			return nil, err
		}
		res.Placements = append(res.Placements, placements...)
		res.Warnings = append(res.Warnings, warnings...)
	}

	if err := p.persist(ctx, candidates[0].Level, res.Placements); err != nil {
		RecordError(ctx, err)
		return nil, err
	}

	p.metrics.RecordPlacement(ctx, "integrated", len(res.Placements), len(res.Warnings))
	p.logger.Debug("placed integrated hangers",
		zap.Int("elements", len(candidates)),
		zap.Int("groups", len(groups)),
		zap.Int("hangers", len(res.Placements)),
	)
	SetSpanStatus(ctx, codes.Ok, "")
	return res, nil
}

// Regenerate recomputes hangers for runs whose geometry changed. Batches are
// regrouped as integrated candidates; a single run gets individual hangers.
// It satisfies the conflict resolver's regeneration hook.
func (p *Placer) Regenerate(ctx context.Context, elementIDs []string) error {
	switch len(elementIDs) {
	case 0:
		return nil
	case 1:
		_, err := p.Place(ctx, elementIDs[0])
		return err
	}

	_, err := p.PlaceIntegrated(ctx, elementIDs)
	if errors.Is(err, ErrTooFewElements) {
		// The batch thinned out to fewer than two supportable runs. Place
		// whatever is left individually.
		err = nil
		for _, id := range elementIDs {
			if _, perr := p.Place(ctx, id); perr != nil && !errors.Is(perr, ErrNotSupportable) && err == nil {
				err = perr
			}
		}
	}
	if err == nil {
		p.metrics.RecordRegeneration(ctx, len(elementIDs))
	}
	return err
}

// groupParallel buckets runs that can share trapezes. Membership is
// transitive: a run joins a group when it is groupable with any member.
func (p *Placer) groupParallel(els []element.Element) [][]element.Element {
	var groups [][]element.Element
	assigned := make([]bool, len(els))
	for i := range els {
		if assigned[i] {
			continue
		}
		group := []element.Element{els[i]}
		assigned[i] = true
		for grew := true; grew; {
			grew = false
			for j := range els {
				if assigned[j] {
					continue
				}
				if p.groupable(group, els[j]) {
					group = append(group, els[j])
					assigned[j] = true
					grew = true
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// groupable reports whether a run can share a trapeze with any group member:
// start elevations within GroupZToleranceM and plan-view key points within
// the effective planar tolerance.
func (p *Placer) groupable(group []element.Element, el element.Element) bool {
	for _, member := range group {
		if math.Abs(member.StartZ()-el.StartZ()) > p.cfg.GroupZToleranceM {
			continue
		}
		if minKeyPointDistance(member.Path, el.Path) <= p.cfg.effectivePlanarTolerance() {
			return true
		}
	}
	return false
}

// keyPoints samples a run at its start, middle, and end in plan view.
func keyPoints(path []geometry.Point3D) []geometry.Point2D {
	half := geometry.Length(path) / 2
	return []geometry.Point2D{
		path[0].XY(),
		geometry.PointAt(path, half).XY(),
		path[len(path)-1].XY(),
	}
}

// minKeyPointDistance returns the smallest plan-view distance between the
// key points of two runs.
func minKeyPointDistance(a, b []geometry.Point3D) float64 {
	best := math.MaxFloat64
	for _, pa := range keyPoints(a) {
		for _, pb := range keyPoints(b) {
			if d := pa.Distance(pb); d < best {
				best = d
			}
		}
	}
	return best
}

// sharedSegment is a corridor segment common to most of a group. topZ is the
// highest member elevation along it, where the trapeze sits.
type sharedSegment struct {
	seg  geometry.Segment3D
	topZ float64
}

// commonSegments returns the reference run's segments that at least half of
// the other members run alongside, matched by plan-view midpoint distance.
func commonSegments(ref element.Element, others []element.Element, tol float64) []sharedSegment {
	var out []sharedSegment
	for _, seg := range geometry.Segments(ref.Path) {
		mid := seg.Midpoint()
		topZ := math.Max(seg.A.Z, seg.B.Z)
		count := 0
		for _, o := range others {
			for _, os := range geometry.Segments(o.Path) {
				if os.Midpoint().XY().Distance(mid.XY()) > tol {
					continue
				}
				if z := math.Max(os.A.Z, os.B.Z); z > topZ {
					topZ = z
				}
				count++
				break
			}
		}
		if count*2 >= len(others) {
			out = append(out, sharedSegment{seg: seg, topZ: topZ})
		}
	}
	return out
}

// placeGroup derives shared trapeze placements for one parallel group. When
// the group has no common corridor it degrades to individual hangers on the
// reference run and says so in a warning.
func (p *Placer) placeGroup(ctx context.Context, group []element.Element) ([]Placement, []string, error) {
	ref := group[0]
	corridorTol := p.cfg.effectivePlanarTolerance() + p.cfg.CommonSegmentToleranceM
	shared := commonSegments(ref, group[1:], corridorTol)
	if len(shared) == 0 {
		placements, err := p.placeElement(ctx, ref)
		if err != nil {
			return nil, nil, err
		}
		warning := fmt.Sprintf("no common corridor for group of %d runs, placed individual hangers on %q", len(group), ref.ID)
		return placements, []string{warning}, nil
	}

	spacing, std, err := p.groupSpacing(group)
	if err != nil {
		return nil, nil, err
	}

	memberIDs := make([]string, len(group))
	for i, el := range group {
		memberIDs[i] = el.ID
	}
	spaceID := "spc_" + uuid.New().String()[:8]
	detail := std.DetailFor(p.cfg.SeismicGrade)

	var placements []Placement
	for _, ss := range shared {
		segLen := ss.seg.Length()
		for _, d := range spacingWalk(segLen, spacing, p.cfg.EndpointToleranceM) {
			t := 0.0
			if segLen > geometry.Epsilon {
				t = d / segLen
			}
			pos := ss.seg.A.Lerp(ss.seg.B, t)
			pos.Z = ss.topZ
			placements = append(placements, Placement{
				ID:           "hgr_" + uuid.New().String()[:8],
				Position:     pos,
				Type:         p.classify(ctx, ref.Level, pos),
				StandardCode: std.Code,
				DetailCode:   detail,
				SpacingM:     spacing,
				ElementIDs:   memberIDs,
				SpaceID:      spaceID,
			})
		}
	}
	return dedupe(placements, p.cfg.DedupeSpacingM), nil, nil
}

// groupSpacing returns the tightest member spacing and the standard that
// set it. The tightest requirement governs the shared trapeze.
func (p *Placer) groupSpacing(group []element.Element) (float64, Standard, error) {
	best := math.MaxFloat64
	var bestStd Standard
	for _, el := range group {
		std, err := p.standards.StandardFor(el.Kind)
		if err != nil {
			return 0, Standard{}, err
		}
		spacing, err := p.standards.SpacingFor(el.Kind, el.SpacingSize(), p.cfg.SeismicGrade)
		if err != nil {
			return 0, Standard{}, err
		}
		if spacing < best {
			best = spacing
			bestStd = std
		}
	}
	return best, bestStd, nil
}

// dedupe collapses placements closer than tol to each other, keeping the
// earlier one.
func dedupe(placements []Placement, tol float64) []Placement {
	out := make([]Placement, 0, len(placements))
	for _, pl := range placements {
		dup := false
		for _, kept := range out {
			if kept.Position.Distance(pl.Position) < tol {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, pl)
		}
	}
	return out
}

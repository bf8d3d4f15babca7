package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/events"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
	"github.com/fyrsmithlabs/mepd/internal/hanger"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
	"github.com/fyrsmithlabs/mepd/internal/routing"
	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

// obstacleMarginM widens the corridor bounding box when prefetching
// obstacles for a routing request.
const obstacleMarginM = 1.0

// Coordinator composes the engine components into the wire-level operations
// the HTTP and MCP surfaces expose. It converts between pkg/api/v1 shapes and
// engine types, publishes coordination events best effort, and returns errors
// that satisfy errors.Is against the pkg/api/v1 sentinels.
//
// The registry must be fully populated; a nil event publisher is fine.
type Coordinator struct {
	svc    Registry
	logger *zap.Logger
}

// NewCoordinator creates a coordinator over the registry.
func NewCoordinator(svc Registry, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{svc: svc, logger: logger}
}

// Route plans a path for the requested element and reports the constraints
// applied. Obstacles near the requested corridor are prefetched when the
// store can provide them; they surface as warnings, never as steering.
func (c *Coordinator) Route(ctx context.Context, req apiv1.RouteRequest) (*apiv1.RouteResult, error) {
	rreq := routing.Request{
		Start: geometry.Point2D{X: req.Start[0], Y: req.Start[1]},
		End:   geometry.Point2D{X: req.End[0], Y: req.End[1]},
		Spec: element.Spec{
			Kind:       element.Kind(req.Kind),
			System:     element.System(req.System),
			DiameterMM: req.DiameterMM,
			WidthMM:    req.WidthMM,
			HeightMM:   req.HeightMM,
		},
	}
	rreq.Obstacles = c.obstaclesNear(ctx, req.Level, rreq.Start, rreq.End)

	path, err := c.svc.Planner().Route(ctx, rreq)
	if err != nil {
		return nil, err
	}

	res := &apiv1.RouteResult{
		PathPoints: wirePoints2D(path.Points),
		Constraints: apiv1.RouteConstraints{
			BendRadius: path.Constraints.BendRadiusM,
			MinWidth:   path.Constraints.MinWidthRatio,
			Pattern:    path.Pattern,
		},
		Warnings: orEmpty(path.Warnings),
		Errors:   orEmpty(path.Errors),
	}

	if err := c.svc.Events().ElementRouted(events.ElementRouted{
		Kind:     req.Kind,
		System:   req.System,
		Level:    req.Level,
		Points:   len(path.Points),
		LengthM:  path.Length(),
		Pattern:  path.Pattern,
		Warnings: len(path.Warnings),
		Errors:   len(path.Errors),
	}); err != nil {
		c.logger.Warn("element.routed event not published", zap.Error(err))
	}
	return res, nil
}

// obstaclesNear fetches obstacle footprints around the corridor between start
// and end. Stores without obstacle support, blank levels, and lookup failures
// all yield none.
func (c *Coordinator) obstaclesNear(ctx context.Context, level string, start, end geometry.Point2D) []element.Obstacle {
	provider, ok := c.svc.Store().(modelstore.ObstacleProvider)
	if !ok || level == "" {
		return nil
	}

	bounds := geometry.RectOf([]geometry.Point2D{start, end}).Expand(obstacleMarginM)
	obstacles, err := provider.Obstacles(ctx, level, &bounds)
	if err != nil {
		c.logger.Warn("obstacle lookup failed",
			zap.String("level", level),
			zap.Error(err),
		)
		return nil
	}
	return obstacles
}

// DetectCollisions scans the requested scope and returns classified pairs in
// resolution order.
func (c *Coordinator) DetectCollisions(ctx context.Context, req apiv1.DetectRequest) (*apiv1.DetectResult, error) {
	if req.Level == "" {
		return nil, fmt.Errorf("%w: level is required", apiv1.ErrInvalidRequest)
	}

	pairs, err := c.svc.Detector().Detect(ctx, req.Level, req.ElementIDs, boolOr(req.IncludeStructures, true))
	if err != nil {
		return nil, err
	}

	res := &apiv1.DetectResult{
		Collisions: make([]apiv1.CollisionPair, 0, len(pairs)),
		Warnings:   []string{},
	}
	classes := make(map[string]int)
	for _, p := range pairs {
		res.Collisions = append(res.Collisions, apiv1.CollisionPair{
			ElementA: p.A,
			ElementB: p.B,
			Class:    string(p.Class),
		})
		classes[string(p.Class)]++
	}

	if err := c.svc.Events().CollisionsDetected(events.CollisionsDetected{
		Level:   req.Level,
		Pairs:   len(pairs),
		Classes: classes,
	}); err != nil {
		c.logger.Warn("collision.detected event not published", zap.Error(err))
	}
	return res, nil
}

// ResolveCollisions detects collisions in the requested scope and displaces
// the yielding member of each pair. Hanger regeneration for displaced runs is
// on by default and can be disabled per request.
func (c *Coordinator) ResolveCollisions(ctx context.Context, req apiv1.CoordinateRequest) (*apiv1.CoordinationResult, error) {
	if req.Level == "" {
		return nil, fmt.Errorf("%w: level is required", apiv1.ErrInvalidRequest)
	}

	pairs, err := c.svc.Detector().Detect(ctx, req.Level, req.ElementIDs, boolOr(req.IncludeStructures, true))
	if err != nil {
		return nil, err
	}

	resolver := c.svc.Resolver()
	if !boolOr(req.GenerateHangers, true) {
		resolver = resolver.WithoutHangers()
	}
	result, err := resolver.Resolve(ctx, pairs)
	if err != nil {
		return nil, err
	}

	res := &apiv1.CoordinationResult{
		AdjustedElements:   make([]apiv1.AdjustedElement, 0, len(result.Adjustments)),
		CollisionsResolved: result.CollisionsResolved,
		Warnings:           orEmpty(result.Warnings),
		Errors:             orEmpty(result.Errors),
	}
	for _, adj := range result.Adjustments {
		res.AdjustedElements = append(res.AdjustedElements, apiv1.AdjustedElement{
			ElementID:        adj.ElementID,
			OriginalPath:     wirePoints3D(adj.OriginalPath),
			AdjustedPath:     wirePoints3D(adj.AdjustedPath),
			AdjustmentType:   string(adj.Type),
			AdjustmentReason: adj.Reason,
		})

		if err := c.svc.Events().ElementAdjusted(events.ElementAdjusted{
			ElementID: adj.ElementID,
			Type:      string(adj.Type),
			Reason:    adj.Reason,
		}); err != nil {
			c.logger.Warn("element.adjusted event not published", zap.Error(err))
		}
	}
	return res, nil
}

// PlaceHangers derives and persists supports along one element.
func (c *Coordinator) PlaceHangers(ctx context.Context, req apiv1.HangersRequest) (*apiv1.HangersResult, error) {
	if req.ElementID == "" {
		return nil, fmt.Errorf("%w: element_id is required", apiv1.ErrInvalidRequest)
	}
	placer, err := c.placerFor(req.SeismicGrade)
	if err != nil {
		return nil, err
	}

	result, err := placer.Place(ctx, req.ElementID)
	if err != nil {
		return nil, err
	}

	if err := c.svc.Events().HangersCreated(events.HangersCreated{
		ElementIDs: []string{req.ElementID},
		Count:      len(result.Placements),
	}); err != nil {
		c.logger.Warn("hanger.created event not published", zap.Error(err))
	}
	return hangersResult(result), nil
}

// PlaceIntegratedHangers derives shared trapeze supports across parallel
// elements, degrading to individual placement when no common corridor exists.
func (c *Coordinator) PlaceIntegratedHangers(ctx context.Context, req apiv1.IntegratedHangersRequest) (*apiv1.HangersResult, error) {
	placer, err := c.placerFor(req.SeismicGrade)
	if err != nil {
		return nil, err
	}

	result, err := placer.PlaceIntegrated(ctx, req.ElementIDs)
	if err != nil {
		return nil, err
	}

	var spaceID string
	for _, pl := range result.Placements {
		if pl.SpaceID != "" {
			spaceID = pl.SpaceID
			break
		}
	}
	if err := c.svc.Events().HangersCreated(events.HangersCreated{
		ElementIDs: req.ElementIDs,
		SpaceID:    spaceID,
		Count:      len(result.Placements),
		Integrated: true,
	}); err != nil {
		c.logger.Warn("hanger.created event not published", zap.Error(err))
	}
	return hangersResult(result), nil
}

// placerFor returns the hanger placer, grade-overridden when the request
// names one. An empty grade keeps the daemon's configured grade.
func (c *Coordinator) placerFor(grade string) (*hanger.Placer, error) {
	placer := c.svc.Hangers()
	if grade == "" {
		return placer, nil
	}
	parsed, err := hanger.ParseGrade(grade)
	if err != nil {
		return nil, err
	}
	return placer.WithGrade(parsed), nil
}

// ValidateConnection answers whether two semantic types may be connected by a
// relationship. Disallowed pairs are a valid=false result, not an error.
func (c *Coordinator) ValidateConnection(ctx context.Context, req apiv1.ConnectionCheckRequest) (*apiv1.ConnectionCheckResult, error) {
	verdict, err := c.svc.Semantics().ValidateConnection(ctx, req.SourceType, req.TargetType, req.Relationship)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apiv1.ErrInvalidRequest, err)
	}

	return &apiv1.ConnectionCheckResult{
		Valid:                verdict.Valid,
		AllowedRelationships: orEmpty(verdict.AllowedRelationships),
		Suggestion:           verdict.Suggestion,
	}, nil
}

// hangersResult converts a placement batch to its wire shape.
func hangersResult(result *hanger.Result) *apiv1.HangersResult {
	res := &apiv1.HangersResult{
		Hangers:  make([]apiv1.HangerResult, 0, len(result.Placements)),
		Warnings: orEmpty(result.Warnings),
	}
	for _, pl := range result.Placements {
		ids := pl.ElementIDs
		if len(ids) == 0 && pl.ElementID != "" {
			ids = []string{pl.ElementID}
		}
		res.Hangers = append(res.Hangers, apiv1.HangerResult{
			ID:                  pl.ID,
			Position:            [3]float64{pl.Position.X, pl.Position.Y, pl.Position.Z},
			HangerType:          string(pl.Type),
			StandardCode:        pl.StandardCode,
			DetailCode:          pl.DetailCode,
			SupportInterval:     pl.SpacingM,
			SupportedElementIDs: ids,
			SpaceID:             pl.SpaceID,
		})
	}
	return res
}

// wirePoints2D converts plan-view points to their wire shape.
func wirePoints2D(pts []geometry.Point2D) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

// wirePoints3D converts model-space points to their wire shape.
func wirePoints3D(pts []geometry.Point3D) [][3]float64 {
	out := make([][3]float64, len(pts))
	for i, p := range pts {
		out[i] = [3]float64{p.X, p.Y, p.Z}
	}
	return out
}

// orEmpty keeps wire slices encoding as [] instead of null.
func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// boolOr dereferences an optional wire flag with a default.
func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

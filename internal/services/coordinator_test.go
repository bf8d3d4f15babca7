package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/mepd/internal/collision"
	"github.com/fyrsmithlabs/mepd/internal/conflict"
	"github.com/fyrsmithlabs/mepd/internal/constraint"
	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/events"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
	"github.com/fyrsmithlabs/mepd/internal/hanger"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
	"github.com/fyrsmithlabs/mepd/internal/routing"
	"github.com/fyrsmithlabs/mepd/internal/semantics"
	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

func levelRun(id string, kind element.Kind, system element.System, y float64) element.Element {
	el := element.Element{
		ID:     id,
		Kind:   kind,
		System: system,
		Level:  "L1",
		Path: []geometry.Point3D{
			{X: 0, Y: y, Z: 3},
			{X: 10, Y: y, Z: 3},
		},
	}
	switch kind {
	case element.KindDuct:
		el.WidthMM, el.HeightMM = 400, 200
	case element.KindCableTray:
		el.WidthMM = 300
	default:
		el.DiameterMM = 100
	}
	return el
}

func storeWith(t *testing.T, els ...element.Element) *modelstore.Memory {
	t.Helper()
	store := modelstore.NewMemory()
	for _, el := range els {
		require.NoError(t, store.SaveElement(context.Background(), el))
	}
	return store
}

func testCoordinator(t *testing.T, store *modelstore.Memory) *Coordinator {
	t.Helper()
	return eventedCoordinator(t, store, nil)
}

func eventedCoordinator(t *testing.T, store *modelstore.Memory, pub *events.Publisher) *Coordinator {
	t.Helper()
	catalog := constraint.NewCatalog()
	placer := hanger.NewPlacer(store)
	reg := NewRegistry(Options{
		Store:     store,
		Planner:   routing.NewPlanner(catalog),
		Detector:  collision.NewDetector(store),
		Resolver:  conflict.NewResolver(store, conflict.WithHangerRegenerator(placer)),
		Hangers:   placer,
		Semantics: semantics.NewValidator(),
		Catalog:   catalog,
		Events:    pub,
	})
	return NewCoordinator(reg, zap.NewNop())
}

func boolPtr(b bool) *bool { return &b }

func TestCoordinator_Route(t *testing.T) {
	c := testCoordinator(t, modelstore.NewMemory())

	res, err := c.Route(context.Background(), apiv1.RouteRequest{
		Start:    [2]float64{0, 0},
		End:      [2]float64{12, 0},
		Kind:     "duct",
		System:   "supply_air",
		WidthMM:  400,
		HeightMM: 200,
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, [][2]float64{{0, 0}, {12, 0}}, res.PathPoints)
	assert.InDelta(t, 0.4, res.Constraints.BendRadius, 1e-9)
	assert.Empty(t, res.Constraints.Pattern)
	assert.NotNil(t, res.Warnings)
	assert.Empty(t, res.Warnings)
	assert.NotNil(t, res.Errors)
	assert.Empty(t, res.Errors)
}

func TestCoordinator_RouteGravityDouble45(t *testing.T) {
	c := testCoordinator(t, modelstore.NewMemory())

	res, err := c.Route(context.Background(), apiv1.RouteRequest{
		Start:      [2]float64{0, 0},
		End:        [2]float64{10, 6},
		Kind:       "pipe",
		System:     "gravity_drainage",
		DiameterMM: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "double_45", res.Constraints.Pattern)
	assert.InDelta(t, 0.15, res.Constraints.BendRadius, 1e-9)
	require.Len(t, res.PathPoints, 4)
	assert.Equal(t, [2]float64{0, 0}, res.PathPoints[0])
	assert.Equal(t, [2]float64{10, 6}, res.PathPoints[3])
}

func TestCoordinator_RouteObstacleWarnings(t *testing.T) {
	beam := element.Element{
		ID:    "beam-1",
		Kind:  element.KindBeam,
		Level: "L2",
		Bounds: geometry.Box{
			Min: geometry.Point3D{X: 4.85, Y: -1, Z: 2.5},
			Max: geometry.Point3D{X: 5.15, Y: 1, Z: 3.5},
		},
	}
	c := testCoordinator(t, storeWith(t, beam))

	req := apiv1.RouteRequest{
		Start:      [2]float64{0, 0},
		End:        [2]float64{10, 0},
		Kind:       "pipe",
		System:     "chilled_water",
		DiameterMM: 100,
		Level:      "L2",
	}
	res, err := c.Route(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `beam "beam-1"`)

	// Without a level there is nothing to prefetch obstacles from.
	req.Level = ""
	res, err = c.Route(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
}

func TestCoordinator_RouteInvalidSpec(t *testing.T) {
	c := testCoordinator(t, modelstore.NewMemory())

	res, err := c.Route(context.Background(), apiv1.RouteRequest{
		Start: [2]float64{0, 0},
		End:   [2]float64{10, 0},
		Kind:  "duct",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiv1.ErrValidation)
	assert.Nil(t, res)
}

func TestCoordinator_DetectCollisions(t *testing.T) {
	duct := levelRun("duct-1", element.KindDuct, element.SystemSupplyAir, 0)
	pipe := levelRun("pipe-1", element.KindPipe, element.SystemChilledWater, 0)
	c := testCoordinator(t, storeWith(t, duct, pipe))

	res, err := c.DetectCollisions(context.Background(), apiv1.DetectRequest{Level: "L1"})
	require.NoError(t, err)

	require.Len(t, res.Collisions, 1)
	assert.Equal(t, "duct-1", res.Collisions[0].ElementA)
	assert.Equal(t, "pipe-1", res.Collisions[0].ElementB)
	assert.Equal(t, "mep", res.Collisions[0].Class)
	assert.NotNil(t, res.Warnings)
}

func TestCoordinator_DetectStructureToggle(t *testing.T) {
	duct := levelRun("duct-1", element.KindDuct, element.SystemSupplyAir, 0)
	beam := element.Element{
		ID:    "beam-1",
		Kind:  element.KindBeam,
		Level: "L1",
		Bounds: geometry.Box{
			Min: geometry.Point3D{X: 0, Y: -0.3, Z: 2.8},
			Max: geometry.Point3D{X: 10, Y: 0.3, Z: 3.4},
		},
	}
	c := testCoordinator(t, storeWith(t, duct, beam))

	res, err := c.DetectCollisions(context.Background(), apiv1.DetectRequest{Level: "L1"})
	require.NoError(t, err)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, "beam-1", res.Collisions[0].ElementA)
	assert.Equal(t, "duct-1", res.Collisions[0].ElementB)
	assert.Equal(t, "beam_column", res.Collisions[0].Class)

	res, err = c.DetectCollisions(context.Background(), apiv1.DetectRequest{
		Level:             "L1",
		IncludeStructures: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Collisions)
}

func TestCoordinator_LevelRequired(t *testing.T) {
	c := testCoordinator(t, modelstore.NewMemory())

	_, err := c.DetectCollisions(context.Background(), apiv1.DetectRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiv1.ErrInvalidRequest)
	assert.ErrorContains(t, err, "level is required")

	_, err = c.ResolveCollisions(context.Background(), apiv1.CoordinateRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiv1.ErrInvalidRequest)
}

func TestCoordinator_ResolveCollisions(t *testing.T) {
	ctx := context.Background()
	duct := levelRun("duct-1", element.KindDuct, element.SystemSupplyAir, 0)
	pipe := levelRun("pipe-1", element.KindPipe, element.SystemChilledWater, 0)
	store := storeWith(t, duct, pipe)
	c := testCoordinator(t, store)

	res, err := c.ResolveCollisions(ctx, apiv1.CoordinateRequest{
		Level:           "L1",
		GenerateHangers: boolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.CollisionsResolved)
	require.Len(t, res.AdjustedElements, 1)
	adj := res.AdjustedElements[0]
	assert.Equal(t, "pipe-1", adj.ElementID)
	assert.Equal(t, "vertical_translation", adj.AdjustmentType)
	assert.Contains(t, adj.AdjustmentReason, "duct-1")
	require.NotEmpty(t, adj.OriginalPath)
	require.NotEmpty(t, adj.AdjustedPath)
	assert.InDelta(t, 3.0, adj.OriginalPath[0][2], 1e-9)
	assert.InDelta(t, 2.8, adj.AdjustedPath[0][2], 1e-9)

	// The displacement is persisted, but no hangers were generated.
	moved, err := store.Element(ctx, "pipe-1")
	require.NoError(t, err)
	assert.InDelta(t, 2.8, moved.Path[0].Z, 1e-9)
	assert.Empty(t, store.Hangers())
}

func TestCoordinator_ResolveRegeneratesHangers(t *testing.T) {
	duct := levelRun("duct-1", element.KindDuct, element.SystemSupplyAir, 0)
	pipe := levelRun("pipe-1", element.KindPipe, element.SystemChilledWater, 0)
	store := storeWith(t, duct, pipe)
	c := testCoordinator(t, store)

	res, err := c.ResolveCollisions(context.Background(), apiv1.CoordinateRequest{Level: "L1"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CollisionsResolved)

	// The displaced 10 m run gets supports at 3 m spacing plus the endpoint,
	// placed on the lowered geometry.
	hangers := store.Hangers()
	require.Len(t, hangers, 5)
	for _, h := range hangers {
		assert.InDelta(t, 2.8, h.Position.Z, 1e-9)
	}
}

func TestCoordinator_PlaceHangers(t *testing.T) {
	pipe := levelRun("pipe-1", element.KindPipe, element.SystemChilledWater, 0)
	store := storeWith(t, pipe)
	c := testCoordinator(t, store)

	res, err := c.PlaceHangers(context.Background(), apiv1.HangersRequest{ElementID: "pipe-1"})
	require.NoError(t, err)

	require.Len(t, res.Hangers, 5)
	first := res.Hangers[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, [3]float64{0, 0, 3}, first.Position)
	assert.Equal(t, "suspended", first.HangerType)
	assert.Equal(t, "MSS SP-58", first.StandardCode)
	assert.Equal(t, "PH-1", first.DetailCode)
	assert.InDelta(t, 3.0, first.SupportInterval, 1e-9)
	assert.Equal(t, []string{"pipe-1"}, first.SupportedElementIDs)
	assert.Empty(t, first.SpaceID)
	assert.NotNil(t, res.Warnings)

	assert.Len(t, store.Hangers(), 5)
}

func TestCoordinator_PlaceHangersSeismicGrade(t *testing.T) {
	pipe := levelRun("pipe-1", element.KindPipe, element.SystemChilledWater, 0)
	c := testCoordinator(t, storeWith(t, pipe))

	res, err := c.PlaceHangers(context.Background(), apiv1.HangersRequest{
		ElementID:    "pipe-1",
		SeismicGrade: "high",
	})
	require.NoError(t, err)
	require.Len(t, res.Hangers, 6)
	assert.Equal(t, "PH-S1", res.Hangers[0].DetailCode)
	assert.InDelta(t, 1.95, res.Hangers[0].SupportInterval, 1e-9)

	// The override is per request; the configured grade is untouched.
	res, err = c.PlaceHangers(context.Background(), apiv1.HangersRequest{ElementID: "pipe-1"})
	require.NoError(t, err)
	require.Len(t, res.Hangers, 5)
	assert.Equal(t, "PH-1", res.Hangers[0].DetailCode)
}

func TestCoordinator_PlaceHangersValidation(t *testing.T) {
	pipe := levelRun("pipe-1", element.KindPipe, element.SystemChilledWater, 0)
	c := testCoordinator(t, storeWith(t, pipe))

	tests := []struct {
		name     string
		req      apiv1.HangersRequest
		wantErr  error
		contains string
	}{
		{
			name:     "missing element id",
			req:      apiv1.HangersRequest{},
			wantErr:  apiv1.ErrInvalidRequest,
			contains: "element_id is required",
		},
		{
			name:    "unknown element",
			req:     apiv1.HangersRequest{ElementID: "ghost"},
			wantErr: apiv1.ErrNotFound,
		},
		{
			name:     "unknown seismic grade",
			req:      apiv1.HangersRequest{ElementID: "pipe-1", SeismicGrade: "extreme"},
			wantErr:  apiv1.ErrValidation,
			contains: "unknown seismic grade",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.PlaceHangers(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.contains != "" {
				assert.ErrorContains(t, err, tt.contains)
			}
			assert.Nil(t, res)
		})
	}
}

func TestCoordinator_PlaceIntegratedHangers(t *testing.T) {
	a := levelRun("pipe-a", element.KindPipe, element.SystemChilledWater, 0)
	b := levelRun("pipe-b", element.KindPipe, element.SystemChilledWater, 0.5)
	store := storeWith(t, a, b)
	c := testCoordinator(t, store)

	res, err := c.PlaceIntegratedHangers(context.Background(), apiv1.IntegratedHangersRequest{
		ElementIDs: []string{"pipe-a", "pipe-b"},
	})
	require.NoError(t, err)

	require.Len(t, res.Hangers, 5)
	spaceID := res.Hangers[0].SpaceID
	assert.NotEmpty(t, spaceID)
	for _, h := range res.Hangers {
		assert.Equal(t, []string{"pipe-a", "pipe-b"}, h.SupportedElementIDs)
		assert.Equal(t, spaceID, h.SpaceID)
	}
	assert.Len(t, store.Hangers(), 5)

	// One run is not enough for a trapeze.
	_, err = c.PlaceIntegratedHangers(context.Background(), apiv1.IntegratedHangersRequest{
		ElementIDs: []string{"pipe-a"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiv1.ErrValidation)
}

func TestCoordinator_ValidateConnection(t *testing.T) {
	c := testCoordinator(t, modelstore.NewMemory())

	tests := []struct {
		name        string
		req         apiv1.ConnectionCheckRequest
		wantValid   bool
		wantAllowed []string
	}{
		{
			name:        "pipe connects to valve",
			req:         apiv1.ConnectionCheckRequest{SourceType: "pipe", TargetType: "valve", Relationship: "connects_to"},
			wantValid:   true,
			wantAllowed: []string{},
		},
		{
			name:        "duct supplies diffuser, not connects",
			req:         apiv1.ConnectionCheckRequest{SourceType: "duct", TargetType: "diffuser", Relationship: "connects_to"},
			wantValid:   false,
			wantAllowed: []string{"supplies"},
		},
		{
			name:        "hanger supports duct",
			req:         apiv1.ConnectionCheckRequest{SourceType: "hanger", TargetType: "duct", Relationship: "supports"},
			wantValid:   true,
			wantAllowed: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.ValidateConnection(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantAllowed, res.AllowedRelationships)
			if !tt.wantValid {
				assert.Contains(t, res.Suggestion, "supplies")
			}
		})
	}
}

func TestCoordinator_ValidateConnectionMissingInput(t *testing.T) {
	c := testCoordinator(t, modelstore.NewMemory())

	_, err := c.ValidateConnection(context.Background(), apiv1.ConnectionCheckRequest{
		TargetType:   "pipe",
		Relationship: "connects_to",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apiv1.ErrInvalidRequest)
	assert.ErrorContains(t, err, "source type is required")
}

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	opts := &natsserver.Options{
		Host:           "127.0.0.1",
		Port:           -1, // Random port
		NoLog:          true,
		NoSigs:         true,
		MaxControlLine: 2048,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func TestCoordinator_PublishesEvents(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)

	pipe := levelRun("pipe-1", element.KindPipe, element.SystemChilledWater, 0)
	store := storeWith(t, pipe)
	c := eventedCoordinator(t, store, events.NewPublisher(nc, "mep.coordination"))

	routedCh := make(chan *nats.Msg, 1)
	routedSub, err := nc.ChanSubscribe("mep.coordination.element.routed", routedCh)
	require.NoError(t, err)
	defer routedSub.Unsubscribe()

	hangerCh := make(chan *nats.Msg, 1)
	hangerSub, err := nc.ChanSubscribe("mep.coordination.hanger.created", hangerCh)
	require.NoError(t, err)
	defer hangerSub.Unsubscribe()

	_, err = c.Route(context.Background(), apiv1.RouteRequest{
		Start:      [2]float64{0, 0},
		End:        [2]float64{10, 0},
		Kind:       "pipe",
		System:     "chilled_water",
		DiameterMM: 100,
	})
	require.NoError(t, err)

	select {
	case msg := <-routedCh:
		var ev events.ElementRouted
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "pipe", ev.Kind)
		assert.Equal(t, 2, ev.Points)
		assert.InDelta(t, 10.0, ev.LengthM, 1e-9)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for element.routed event")
	}

	_, err = c.PlaceHangers(context.Background(), apiv1.HangersRequest{ElementID: "pipe-1"})
	require.NoError(t, err)

	select {
	case msg := <-hangerCh:
		var ev events.HangersCreated
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, []string{"pipe-1"}, ev.ElementIDs)
		assert.Equal(t, 5, ev.Count)
		assert.False(t, ev.Integrated)
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for hanger.created event")
	}
}

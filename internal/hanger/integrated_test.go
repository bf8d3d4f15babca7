package hanger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
	"github.com/fyrsmithlabs/mepd/internal/modelstore"
	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

func TestPlaceIntegratedParallelRuns(t *testing.T) {
	pipe := straightPipe("pipe-a", 10)
	duct := element.Element{
		ID:       "duct-b",
		Kind:     element.KindDuct,
		System:   element.SystemSupplyAir,
		Level:    "L2",
		WidthMM:  600,
		HeightMM: 300,
		Path: []geometry.Point3D{
			{X: 0, Y: 1, Z: 3.1},
			{X: 10, Y: 1, Z: 3.1},
		},
	}
	store := seedStore(t, pipe, duct)
	placer := NewPlacer(store)

	res, err := placer.PlaceIntegrated(context.Background(), []string{"pipe-a", "duct-b"})
	require.NoError(t, err)
	require.Len(t, res.Placements, 5)
	assert.Empty(t, res.Warnings)

	spaceID := res.Placements[0].SpaceID
	require.NotEmpty(t, spaceID)

	want := []float64{0, 2.4, 4.8, 7.2, 9.6}
	for i, pl := range res.Placements {
		assert.InDelta(t, want[i], pl.Position.X, 1e-9)
		assert.InDelta(t, 0, pl.Position.Y, 1e-9)
		assert.InDelta(t, 3.1, pl.Position.Z, 1e-9, "trapeze sits at the highest member elevation")
		assert.InDelta(t, 2.4, pl.SpacingM, 1e-9, "tightest member spacing governs the trapeze")
		assert.Equal(t, "SMACNA HRS", pl.StandardCode)
		assert.Equal(t, "DH-1", pl.DetailCode)
		assert.Equal(t, []string{"pipe-a", "duct-b"}, pl.ElementIDs)
		assert.Equal(t, spaceID, pl.SpaceID)
		assert.Empty(t, pl.ElementID)
	}

	require.Len(t, store.Hangers(), 5)
	rels := store.Relationships()
	require.Len(t, rels, 10)
	for _, rel := range rels {
		assert.Equal(t, modelstore.RelUsesIntegratedHanger, rel.Kind)
	}
}

func TestPlaceIntegratedGroupsByProximity(t *testing.T) {
	a := straightPipe("pipe-a", 10)
	b := straightPipe("pipe-b", 10)
	for i := range b.Path {
		b.Path[i].Y = 1
	}
	c := straightPipe("pipe-c", 10)
	for i := range c.Path {
		c.Path[i].Y = 30
	}
	store := seedStore(t, a, b, c)
	placer := NewPlacer(store)

	res, err := placer.PlaceIntegrated(context.Background(), []string{"pipe-a", "pipe-b", "pipe-c"})
	require.NoError(t, err)

	var integrated, individual int
	for _, pl := range res.Placements {
		if pl.SpaceID != "" {
			integrated++
			assert.Equal(t, []string{"pipe-a", "pipe-b"}, pl.ElementIDs)
		} else {
			individual++
			assert.Equal(t, "pipe-c", pl.ElementID, "the far run falls back to individual hangers")
		}
	}
	assert.Equal(t, 5, integrated)
	assert.Equal(t, 5, individual)
}

func TestPlaceIntegratedElevationSplit(t *testing.T) {
	a := straightPipe("pipe-a", 10)
	b := straightPipe("pipe-b", 10)
	for i := range b.Path {
		b.Path[i].Y = 1
		b.Path[i].Z = 4.2
	}
	store := seedStore(t, a, b)
	placer := NewPlacer(store)

	res, err := placer.PlaceIntegrated(context.Background(), []string{"pipe-a", "pipe-b"})
	require.NoError(t, err)
	require.Len(t, res.Placements, 10)
	for _, pl := range res.Placements {
		assert.Empty(t, pl.SpaceID, "runs at different elevations do not share trapezes")
	}
}

func TestPlaceIntegratedDegradesWithoutCorridor(t *testing.T) {
	a := straightPipe("pipe-a", 10)
	b := straightPipe("pipe-b", 10)
	b.Path = []geometry.Point3D{
		{X: 10.2, Y: 0.2, Z: 3},
		{X: 20, Y: 0.2, Z: 3},
	}
	store := seedStore(t, a, b)
	placer := NewPlacer(store)

	res, err := placer.PlaceIntegrated(context.Background(), []string{"pipe-a", "pipe-b"})
	require.NoError(t, err)

	// End-to-end runs group by their touching endpoints but share no
	// corridor, so the reference run keeps individual hangers.
	require.Len(t, res.Placements, 5)
	for _, pl := range res.Placements {
		assert.Equal(t, "pipe-a", pl.ElementID)
		assert.Empty(t, pl.SpaceID)
	}
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "no common corridor")
}

func TestPlaceIntegratedDedupesCornerHangers(t *testing.T) {
	a := straightPipe("pipe-a", 10)
	a.Path = []geometry.Point3D{
		{X: 0, Y: 0, Z: 3},
		{X: 6, Y: 0, Z: 3},
		{X: 6, Y: 6, Z: 3},
	}
	b := straightPipe("pipe-b", 10)
	b.Path = []geometry.Point3D{
		{X: 0, Y: 1, Z: 3},
		{X: 5, Y: 1, Z: 3},
		{X: 5, Y: 6, Z: 3},
	}
	store := seedStore(t, a, b)
	placer := NewPlacer(store)

	res, err := placer.PlaceIntegrated(context.Background(), []string{"pipe-a", "pipe-b"})
	require.NoError(t, err)

	// Both legs are shared corridor; the two stations meeting at the elbow
	// collapse into one hanger.
	require.Len(t, res.Placements, 5)
}

func TestPlaceIntegratedSkipsUnsupportable(t *testing.T) {
	a := straightPipe("pipe-a", 10)
	stub := straightPipe("p-stub", 10)
	stub.Path = stub.Path[:1]
	store := seedStore(t, a, stub)
	placer := NewPlacer(store)

	_, err := placer.PlaceIntegrated(context.Background(), []string{"pipe-a", "p-stub"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooFewElements)
	assert.ErrorIs(t, err, apiv1.ErrValidation)
	assert.Empty(t, store.Hangers())
}

func TestPlaceIntegratedMissingElement(t *testing.T) {
	placer := NewPlacer(modelstore.NewMemory())

	_, err := placer.PlaceIntegrated(context.Background(), []string{"ghost-1", "ghost-2"})
	assert.ErrorIs(t, err, modelstore.ErrElementNotFound)
}

func TestRegenerate(t *testing.T) {
	t.Run("single run gets individual hangers", func(t *testing.T) {
		store := seedStore(t, straightPipe("pipe-a", 10))
		placer := NewPlacer(store)

		require.NoError(t, placer.Regenerate(context.Background(), []string{"pipe-a"}))
		assert.Len(t, store.Hangers(), 5)
	})

	t.Run("parallel batch regroups as integrated", func(t *testing.T) {
		a := straightPipe("pipe-a", 10)
		b := straightPipe("pipe-b", 10)
		for i := range b.Path {
			b.Path[i].Y = 1
		}
		store := seedStore(t, a, b)
		placer := NewPlacer(store)

		require.NoError(t, placer.Regenerate(context.Background(), []string{"pipe-a", "pipe-b"}))
		hangers := store.Hangers()
		require.Len(t, hangers, 5)
		for _, h := range hangers {
			assert.NotEmpty(t, h.SpaceID)
		}
	})

	t.Run("batch thinned to one run falls back to individual", func(t *testing.T) {
		a := straightPipe("pipe-a", 10)
		stub := straightPipe("p-stub", 10)
		stub.Path = stub.Path[:1]
		store := seedStore(t, a, stub)
		placer := NewPlacer(store)

		require.NoError(t, placer.Regenerate(context.Background(), []string{"pipe-a", "p-stub"}))
		assert.Len(t, store.Hangers(), 5)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		placer := NewPlacer(modelstore.NewMemory())
		require.NoError(t, placer.Regenerate(context.Background(), nil))
	})
}

package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mepd/internal/element"
)

func TestCatalogDefaults(t *testing.T) {
	c := NewCatalog()

	pipe := c.RuleFor(element.KindPipe, "")
	assert.Equal(t, DefaultAllowedAngles, pipe.AllowedAngles)
	assert.False(t, pipe.RequiresDouble45)

	drain := c.RuleFor(element.KindPipe, element.SystemGravityDrainage)
	assert.True(t, drain.RequiresDouble45)

	tray := c.RuleFor(element.KindCableTray, "")
	assert.Equal(t, DefaultTrayWidthRatio, tray.MinWidthRatio)
}

func TestBendRadiusBrackets(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		kind   element.Kind
		sizeMM float64
		want   float64
	}{
		{element.KindPipe, 50, 0.10},
		{element.KindPipe, 100, 0.15},
		{element.KindPipe, 101, 0.25},
		{element.KindPipe, 500, 0.60},
		{element.KindDuct, 400, 0.40},
		{element.KindWire, 10, 0},
	}

	for _, tt := range tests {
		got := c.BendRadiusFor(tt.kind, tt.sizeMM)
		assert.Equal(t, tt.want, got, "%s %v mm", tt.kind, tt.sizeMM)
	}
}

func TestResolve(t *testing.T) {
	c := NewCatalog()

	spec := element.Spec{
		Kind:       element.KindPipe,
		System:     element.SystemGravityDrainage,
		DiameterMM: 100,
	}
	rule := c.Resolve(spec)
	assert.True(t, rule.RequiresDouble45)
	assert.Equal(t, 0.15, rule.BendRadiusM)

	// Gravity systems force double-45 even without a catalog entry.
	bare := NewCatalog()
	bare.rules = map[ruleKey]Rule{}
	rule = bare.Resolve(spec)
	assert.True(t, rule.RequiresDouble45)
}

func TestCatalogLoadOverlay(t *testing.T) {
	c := NewCatalog()

	data := []byte(`
cable_tray_min_width_ratio: 4.0
rules:
  - kind: duct
    forbidden_angles: [15, 75]
  - kind: pipe
    system: chilled_water
    bend_radius_m: 0.5
bend_radius:
  pipe:
    - max_size_mm: 80
      radius_m: 0.2
    - radius_m: 0.9
`)
	require.NoError(t, c.Load(data))

	assert.Equal(t, 4.0, c.TrayWidthRatio())
	assert.Equal(t, []float64{15, 75}, c.RuleFor(element.KindDuct, "").ForbiddenAngles)
	assert.Equal(t, 0.5, c.RuleFor(element.KindPipe, element.SystemChilledWater).BendRadiusM)
	assert.Equal(t, 0.2, c.BendRadiusFor(element.KindPipe, 80))
	assert.Equal(t, 0.9, c.BendRadiusFor(element.KindPipe, 200))

	// Untouched kinds keep their defaults.
	assert.Equal(t, 0.40, c.BendRadiusFor(element.KindDuct, 300))
	assert.True(t, c.RuleFor(element.KindPipe, element.SystemGravityDrainage).RequiresDouble45)
}

func TestCatalogLoadRejectsRuleWithoutKind(t *testing.T) {
	c := NewCatalog()
	err := c.Load([]byte("rules:\n  - system: supply_air\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing kind")
}

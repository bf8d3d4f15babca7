package hanger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/mepd/internal/element"
	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

func TestStandardFor(t *testing.T) {
	s := NewStandards()

	std, err := s.StandardFor(element.KindPipe)
	require.NoError(t, err)
	assert.Equal(t, "MSS SP-58", std.Code)

	_, err = s.StandardFor(element.KindWire)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoStandard)
	assert.ErrorIs(t, err, apiv1.ErrValidation)

	_, err = s.StandardFor(element.KindBeam)
	assert.ErrorIs(t, err, ErrNoStandard)
}

func TestSpacingFor(t *testing.T) {
	s := NewStandards()

	tests := []struct {
		name   string
		kind   element.Kind
		sizeMM float64
		grade  SeismicGrade
		want   float64
	}{
		{name: "small pipe", kind: element.KindPipe, sizeMM: 20, grade: SeismicNone, want: 1.8},
		{name: "pipe at bracket boundary", kind: element.KindPipe, sizeMM: 100, grade: SeismicNone, want: 3.0},
		{name: "large pipe", kind: element.KindPipe, sizeMM: 150, grade: SeismicNone, want: 3.6},
		{name: "pipe beyond the last bound", kind: element.KindPipe, sizeMM: 400, grade: SeismicNone, want: 4.2},
		{name: "wide duct", kind: element.KindDuct, sizeMM: 600, grade: SeismicNone, want: 2.4},
		{name: "narrow tray", kind: element.KindCableTray, sizeMM: 300, grade: SeismicNone, want: 2.4},
		{name: "large conduit", kind: element.KindConduit, sizeMM: 60, grade: SeismicNone, want: 2.5},
		{name: "low seismic", kind: element.KindPipe, sizeMM: 100, grade: SeismicLow, want: 2.7},
		{name: "medium seismic", kind: element.KindPipe, sizeMM: 100, grade: SeismicMedium, want: 2.4},
		{name: "high seismic", kind: element.KindPipe, sizeMM: 100, grade: SeismicHigh, want: 1.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SpacingFor(tt.kind, tt.sizeMM, tt.grade)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestDetailFor(t *testing.T) {
	std := Standard{DetailCode: "PH-1", SeismicDetailCode: "PH-S1"}

	assert.Equal(t, "PH-1", std.DetailFor(SeismicNone))
	assert.Equal(t, "PH-1", std.DetailFor(""))
	assert.Equal(t, "PH-S1", std.DetailFor(SeismicHigh))

	bare := Standard{DetailCode: "X-1"}
	assert.Equal(t, "X-1", bare.DetailFor(SeismicHigh), "missing seismic detail falls back to the base detail")
}

func TestLoadFileOverridesFamily(t *testing.T) {
	src := `
[standards.pipe]
code = "MSS SP-69"
detail_code = "PH-2"
seismic_detail_code = "PH-S2"

[[standards.pipe.spacing]]
max_size_mm = 50
spacing_m = 2.0

[[standards.pipe.spacing]]
spacing_m = 3.0
`
	path := filepath.Join(t.TempDir(), "standards.toml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	s := NewStandards()
	require.NoError(t, s.LoadFile(path))

	std, err := s.StandardFor(element.KindPipe)
	require.NoError(t, err)
	assert.Equal(t, "MSS SP-69", std.Code)
	assert.Equal(t, "PH-2", std.DetailCode)

	got, err := s.SpacingFor(element.KindPipe, 40, SeismicNone)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-9)

	got, err = s.SpacingFor(element.KindPipe, 300, SeismicNone)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got, 1e-9)

	// Families absent from the file keep their built-in tables.
	got, err = s.SpacingFor(element.KindDuct, 600, SeismicNone)
	require.NoError(t, err)
	assert.InDelta(t, 2.4, got, 1e-9)
}

func TestLoadFileRejectsEmptySpacing(t *testing.T) {
	src := `
[standards.pipe]
code = "MSS SP-69"
detail_code = "PH-2"
`
	path := filepath.Join(t.TempDir(), "standards.toml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	s := NewStandards()
	err := s.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spacing brackets")

	// The catalog stays on the built-in tables after a rejected file.
	got, serr := s.SpacingFor(element.KindPipe, 100, SeismicNone)
	require.NoError(t, serr)
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestLoadFileBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standards.toml")
	require.NoError(t, os.WriteFile(path, []byte("[standards.pipe\n"), 0o644))

	s := NewStandards()
	err := s.LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse standards file")
}

func TestFamilies(t *testing.T) {
	s := NewStandards()
	assert.Equal(t, []string{"cable_tray", "conduit", "duct", "pipe"}, s.Families())
}

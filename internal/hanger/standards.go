package hanger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/mepd/internal/element"
	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

// SeismicGrade names the bracing class of an installation. Grades above
// SeismicNone tighten hanger spacing.
type SeismicGrade string

const (
	SeismicNone   SeismicGrade = "none"
	SeismicLow    SeismicGrade = "low"
	SeismicMedium SeismicGrade = "medium"
	SeismicHigh   SeismicGrade = "high"
)

// ParseGrade converts a wire-level grade string to a SeismicGrade. Empty
// input means SeismicNone.
func ParseGrade(s string) (SeismicGrade, error) {
	switch SeismicGrade(s) {
	case "", SeismicNone:
		return SeismicNone, nil
	case SeismicLow, SeismicMedium, SeismicHigh:
		return SeismicGrade(s), nil
	}
	return SeismicNone, fmt.Errorf("%w: unknown seismic grade %q", apiv1.ErrValidation, s)
}

// factor returns the spacing multiplier for the grade. Unknown grades are
// treated as none.
func (g SeismicGrade) factor() float64 {
	switch g {
	case SeismicLow:
		return 0.9
	case SeismicMedium:
		return 0.8
	case SeismicHigh:
		return 0.65
	default:
		return 1.0
	}
}

// SpacingBracket maps element sizes up to MaxSizeMM to a maximum support
// spacing. A bracket with MaxSizeMM zero is open-ended and must come last.
type SpacingBracket struct {
	MaxSizeMM float64 `toml:"max_size_mm"`
	SpacingM  float64 `toml:"spacing_m"`
}

// Standard is the governing hanger standard for one element family.
type Standard struct {
	Code              string           `toml:"code"`
	DetailCode        string           `toml:"detail_code"`
	SeismicDetailCode string           `toml:"seismic_detail_code"`
	Spacing           []SpacingBracket `toml:"spacing"`
}

// DetailFor selects the detail drawing code, preferring the seismic detail
// when a grade applies.
func (s Standard) DetailFor(grade SeismicGrade) string {
	if grade != SeismicNone && grade != "" && s.SeismicDetailCode != "" {
		return s.SeismicDetailCode
	}
	return s.DetailCode
}

// Standards resolves hanger standards and support spacing by element kind.
// It ships with built-in tables; LoadFile overlays a TOML file on top. Safe
// for concurrent readers.
type Standards struct {
	mu       sync.RWMutex
	byFamily map[string]Standard
}

// NewStandards returns a catalog populated with the built-in tables.
func NewStandards() *Standards {
	return &Standards{byFamily: defaultStandards()}
}

// StandardFor returns the standard governing a kind, or ErrNoStandard.
func (s *Standards) StandardFor(kind element.Kind) (Standard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	std, ok := s.byFamily[element.ProfileFor(kind).StandardFamily]
	if !ok {
		return Standard{}, fmt.Errorf("%w %q", ErrNoStandard, kind)
	}
	return std, nil
}

// SpacingFor returns the maximum support spacing for an element of the
// given kind and governing size, scaled by the seismic grade.
func (s *Standards) SpacingFor(kind element.Kind, sizeMM float64, grade SeismicGrade) (float64, error) {
	std, err := s.StandardFor(kind)
	if err != nil {
		return 0, err
	}
	for _, b := range std.Spacing {
		if b.MaxSizeMM == 0 || sizeMM <= b.MaxSizeMM {
			return b.SpacingM * grade.factor(), nil
		}
	}
	return 0, fmt.Errorf("%w %q: no spacing bracket for size %.0f mm", ErrNoStandard, kind, sizeMM)
}

// Families lists the kinds with a governing standard, sorted.
func (s *Standards) Families() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byFamily))
	for f := range s.byFamily {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// fileSchema is the TOML shape of a standards override file. Families
// present in the file replace the built-in entry wholesale.
type fileSchema struct {
	Standards map[string]Standard `toml:"standards"`
}

// LoadFile overlays standards from a TOML file onto the built-in tables.
func (s *Standards) LoadFile(path string) error {
	var file fileSchema
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return fmt.Errorf("parse standards file %s: %w", path, err)
	}

	merged := defaultStandards()
	for family, std := range file.Standards {
		if len(std.Spacing) == 0 {
			return fmt.Errorf("standards file %s: family %q has no spacing brackets", path, family)
		}
		merged[family] = std
	}

	s.mu.Lock()
	s.byFamily = merged
	s.mu.Unlock()
	return nil
}

// defaultStandards are the built-in support tables. Wire runs have no
// standard: loose wiring is supported by its containment, not by hangers.
func defaultStandards() map[string]Standard {
	return map[string]Standard{
		"pipe": {
			Code:              "MSS SP-58",
			DetailCode:        "PH-1",
			SeismicDetailCode: "PH-S1",
			Spacing: []SpacingBracket{
				{MaxSizeMM: 25, SpacingM: 1.8},
				{MaxSizeMM: 50, SpacingM: 2.4},
				{MaxSizeMM: 100, SpacingM: 3.0},
				{MaxSizeMM: 150, SpacingM: 3.6},
				{SpacingM: 4.2},
			},
		},
		"duct": {
			Code:              "SMACNA HRS",
			DetailCode:        "DH-1",
			SeismicDetailCode: "DH-S1",
			Spacing: []SpacingBracket{
				{MaxSizeMM: 450, SpacingM: 3.0},
				{MaxSizeMM: 1000, SpacingM: 2.4},
				{SpacingM: 2.0},
			},
		},
		"cable_tray": {
			Code:              "NEMA VE 2",
			DetailCode:        "TH-1",
			SeismicDetailCode: "TH-S1",
			Spacing: []SpacingBracket{
				{MaxSizeMM: 300, SpacingM: 2.4},
				{MaxSizeMM: 600, SpacingM: 2.0},
				{SpacingM: 1.5},
			},
		},
		"conduit": {
			Code:              "NECA 101",
			DetailCode:        "CH-1",
			SeismicDetailCode: "CH-S1",
			Spacing: []SpacingBracket{
				{MaxSizeMM: 25, SpacingM: 1.5},
				{MaxSizeMM: 50, SpacingM: 2.0},
				{SpacingM: 2.5},
			},
		},
	}
}

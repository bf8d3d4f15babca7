package element

// Spec describes a line element to be routed, before it exists in the model.
type Spec struct {
	Kind   Kind   `json:"kind"`
	System System `json:"system,omitempty"`

	DiameterMM float64 `json:"diameter_mm,omitempty"`
	WidthMM    float64 `json:"width_mm,omitempty"`
	HeightMM   float64 `json:"height_mm,omitempty"`

	// SourceType and TargetType optionally name the semantic classes the run
	// connects, for connection validation.
	SourceType string `json:"source_type,omitempty"`
	TargetType string `json:"target_type,omitempty"`
}

// Validate checks the spec is routable.
func (s Spec) Validate() error {
	if s.Kind == "" {
		return ErrKindRequired
	}
	if !s.Kind.IsMEP() {
		return ErrNotLineElement
	}
	if s.DiameterMM < 0 || s.WidthMM < 0 || s.HeightMM < 0 {
		return ErrNegativeSize
	}
	switch s.Kind {
	case KindPipe, KindConduit, KindWire:
		if s.DiameterMM == 0 {
			return ErrDiameterRequired
		}
	case KindDuct, KindCableTray:
		if s.WidthMM == 0 {
			return ErrWidthRequired
		}
	}
	return nil
}

// GoverningSizeMM returns the dimension constraint tables key on: diameter
// for round elements, width otherwise.
func (s Spec) GoverningSizeMM() float64 {
	if s.DiameterMM > 0 {
		return s.DiameterMM
	}
	return s.WidthMM
}

// Materialize builds an unidentified Element carrying the spec's kind,
// system, and sizes. The caller supplies path and id.
func (s Spec) Materialize() Element {
	return Element{
		Kind:       s.Kind,
		System:     s.System,
		DiameterMM: s.DiameterMM,
		WidthMM:    s.WidthMM,
		HeightMM:   s.HeightMM,
	}
}

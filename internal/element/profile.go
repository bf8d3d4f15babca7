package element

// Profile is the per-kind strategy: default conflict priority, hanger
// standard family, and how the kind measures itself.
type Profile struct {
	// DefaultPriority applies when neither the element nor its system
	// declares one. Lower keeps its path in a conflict.
	DefaultPriority int

	// StandardFamily keys the hanger standards catalog.
	StandardFamily string

	// SizeMeasure is the magnitude compared in equal-priority conflicts, in
	// mm (duct: width x height, so mm^2).
	SizeMeasure func(Element) float64

	// SpacingSize is the dimension hanger spacing brackets select on, in mm.
	SpacingSize func(Element) float64
}

// UnknownPriority is the fallback for kinds without a profile entry.
const UnknownPriority = 5

func diameterOf(e Element) float64 { return e.DiameterMM }
func widthOf(e Element) float64    { return e.WidthMM }
func areaOf(e Element) float64     { return e.WidthMM * e.HeightMM }

var profiles = map[Kind]Profile{
	KindDuct: {
		DefaultPriority: 2,
		StandardFamily:  "duct",
		SizeMeasure:     areaOf,
		SpacingSize:     widthOf,
	},
	KindPipe: {
		DefaultPriority: 3,
		StandardFamily:  "pipe",
		SizeMeasure:     diameterOf,
		SpacingSize:     diameterOf,
	},
	KindCableTray: {
		DefaultPriority: 4,
		StandardFamily:  "cable_tray",
		SizeMeasure:     widthOf,
		SpacingSize:     widthOf,
	},
	KindConduit: {
		DefaultPriority: UnknownPriority,
		StandardFamily:  "conduit",
		SizeMeasure:     diameterOf,
		SpacingSize:     diameterOf,
	},
	KindWire: {
		DefaultPriority: UnknownPriority,
		StandardFamily:  "wire",
		SizeMeasure:     diameterOf,
		SpacingSize:     diameterOf,
	},
}

// ProfileFor returns the strategy profile for k. Kinds without an entry
// (structural members, future kinds) get a zero-measuring profile with
// UnknownPriority.
func ProfileFor(k Kind) Profile {
	if p, ok := profiles[k]; ok {
		return p
	}
	return Profile{
		DefaultPriority: UnknownPriority,
		StandardFamily:  string(k),
		SizeMeasure:     func(Element) float64 { return 0 },
		SpacingSize:     func(Element) float64 { return 0 },
	}
}

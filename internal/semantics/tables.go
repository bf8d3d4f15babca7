package semantics

// Relationship names a connection kind between two element types.
type Relationship string

const (
	RelConnectsTo Relationship = "connects_to"
	RelSupplies   Relationship = "supplies"
	RelDrainsTo   Relationship = "drains_to"
	RelControls   Relationship = "controls"
	RelSupports   Relationship = "supports"
)

type typePair struct {
	source string
	target string
}

// exampleTables are the strict fallback lookup: the exact (source, target)
// type pairs each relationship is known to connect. No inference happens
// here; a pair is either listed or rejected.
func exampleTables() map[Relationship]map[typePair]struct{} {
	set := func(pairs ...[2]string) map[typePair]struct{} {
		m := make(map[typePair]struct{}, len(pairs))
		for _, p := range pairs {
			m[typePair{source: p[0], target: p[1]}] = struct{}{}
		}
		return m
	}

	return map[Relationship]map[typePair]struct{}{
		RelConnectsTo: set(
			[2]string{"pipe", "pipe"},
			[2]string{"pipe", "valve"},
			[2]string{"valve", "pipe"},
			[2]string{"duct", "duct"},
			[2]string{"duct", "damper"},
			[2]string{"damper", "duct"},
			[2]string{"cable_tray", "cable_tray"},
			[2]string{"conduit", "conduit"},
			[2]string{"conduit", "cable_tray"},
			[2]string{"wire", "conduit"},
		),
		RelSupplies: set(
			[2]string{"pump", "pipe"},
			[2]string{"pipe", "fixture"},
			[2]string{"air_handler", "duct"},
			[2]string{"duct", "diffuser"},
			[2]string{"panel", "conduit"},
			[2]string{"panel", "cable_tray"},
		),
		RelDrainsTo: set(
			[2]string{"fixture", "pipe"},
			[2]string{"pipe", "pipe"},
		),
		RelControls: set(
			[2]string{"panel", "valve"},
			[2]string{"panel", "damper"},
		),
		RelSupports: set(
			[2]string{"hanger", "pipe"},
			[2]string{"hanger", "duct"},
			[2]string{"hanger", "cable_tray"},
			[2]string{"hanger", "conduit"},
		),
	}
}

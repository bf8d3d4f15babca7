// Package element defines the MEP and structural element model shared by the
// routing, collision, conflict, and hanger engines. MEP line elements carry a
// 3D centerline path and millimeter size properties; structural members carry
// an envelope box. Per-kind behavior (tie-break size measure, default
// priority, spacing dimension) lives in a strategy table instead of scattered
// switches.
package element

// Kind identifies what a model element is.
type Kind string

// MEP line element kinds. These are routable and receive hangers.
const (
	KindPipe      Kind = "pipe"
	KindDuct      Kind = "duct"
	KindCableTray Kind = "cable_tray"
	KindConduit   Kind = "conduit"
	KindWire      Kind = "wire"
)

// Structural member kinds. These act as obstacles, collision classes, and
// hanger hosts.
const (
	KindBeam   Kind = "beam"
	KindColumn Kind = "column"
	KindWall   Kind = "wall"
	KindSlab   Kind = "slab"
)

// MEPKinds lists every routable line element kind.
func MEPKinds() []Kind {
	return []Kind{KindPipe, KindDuct, KindCableTray, KindConduit, KindWire}
}

// IsMEP reports whether k is a routable line element.
func (k Kind) IsMEP() bool {
	switch k {
	case KindPipe, KindDuct, KindCableTray, KindConduit, KindWire:
		return true
	}
	return false
}

// IsStructural reports whether k is a structural member.
func (k Kind) IsStructural() bool {
	switch k {
	case KindBeam, KindColumn, KindWall, KindSlab:
		return true
	}
	return false
}

// System identifies the building system an element serves. The zero value
// means undeclared.
type System string

const (
	SystemGravityDrainage System = "gravity_drainage"
	SystemSanitary        System = "sanitary"
	SystemVent            System = "vent"
	SystemDomesticWater   System = "domestic_water"
	SystemChilledWater    System = "chilled_water"
	SystemHeatingWater    System = "heating_water"
	SystemFireProtection  System = "fire_protection"
	SystemSupplyAir       System = "supply_air"
	SystemReturnAir       System = "return_air"
	SystemExhaustAir      System = "exhaust_air"
	SystemPower           System = "power"
	SystemLighting        System = "lighting"
	SystemControls        System = "controls"
)

// GravityBound reports whether the system must hold a continuous downward
// slope, which forbids single 90 degree elbows on horizontal runs.
func (s System) GravityBound() bool {
	return s == SystemGravityDrainage || s == SystemSanitary
}

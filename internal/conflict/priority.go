package conflict

import "github.com/fyrsmithlabs/mepd/internal/element"

// systemPriorities ranks building systems for conflict resolution. Lower
// keeps its path. Slope-bound drainage is effectively immovable, ductwork
// beats pipework because rerouting large duct is costly, and electrical
// containment moves most freely.
var systemPriorities = map[element.System]int{
	element.SystemGravityDrainage: 1,
	element.SystemSanitary:        1,
	element.SystemVent:            2,
	element.SystemFireProtection:  2,
	element.SystemSupplyAir:       2,
	element.SystemReturnAir:       2,
	element.SystemExhaustAir:      2,
	element.SystemDomesticWater:   3,
	element.SystemChilledWater:    3,
	element.SystemHeatingWater:    3,
	element.SystemPower:           4,
	element.SystemLighting:        4,
	element.SystemControls:        5,
}

// PriorityOf resolves an element's conflict priority: an explicit element
// priority wins, then the system table, then the kind default.
func PriorityOf(el element.Element) int {
	if el.Priority >= 1 && el.Priority <= 5 {
		return el.Priority
	}
	if p, ok := systemPriorities[el.System]; ok {
		return p
	}
	return element.ProfileFor(el.Kind).DefaultPriority
}

// Package semantics validates whether two element types may be connected by
// a given relationship. Verdicts come from a subclass-aware ontology query
// when a class graph is loaded, with a silent fallback to strict
// per-relationship example tables. There is no inference beyond subclassing:
// unmapped pairs are rejected.
package semantics

import "fmt"

// Namespace is the IRI prefix for the MEP ontology classes.
const Namespace = "https://w3id.org/fyrsmithlabs/mep#"

// Class is an ontology class IRI.
type Class string

// Core classes of the MEP connection ontology.
const (
	ClassLineElement Class = Namespace + "LineElement"
	ClassPipe        Class = Namespace + "Pipe"
	ClassDuct        Class = Namespace + "Duct"
	ClassCableTray   Class = Namespace + "CableTray"
	ClassConduit     Class = Namespace + "Conduit"
	ClassWire        Class = Namespace + "Wire"

	ClassEquipment  Class = Namespace + "Equipment"
	ClassPump       Class = Namespace + "Pump"
	ClassAirHandler Class = Namespace + "AirHandler"
	ClassPanel      Class = Namespace + "Panel"

	ClassTerminal Class = Namespace + "Terminal"
	ClassFixture  Class = Namespace + "Fixture"
	ClassDiffuser Class = Namespace + "Diffuser"

	ClassAccessory Class = Namespace + "Accessory"
	ClassValve     Class = Namespace + "Valve"
	ClassDamper    Class = Namespace + "Damper"
)

// ClassMap maps domain type names to ontology classes.
var ClassMap = map[string]Class{
	"pipe":        ClassPipe,
	"duct":        ClassDuct,
	"cable_tray":  ClassCableTray,
	"conduit":     ClassConduit,
	"wire":        ClassWire,
	"pump":        ClassPump,
	"air_handler": ClassAirHandler,
	"panel":       ClassPanel,
	"fixture":     ClassFixture,
	"diffuser":    ClassDiffuser,
	"valve":       ClassValve,
	"damper":      ClassDamper,
}

// ClassPair is an allowed (domain, range) combination for a relationship.
type ClassPair struct {
	Domain Class
	Range  Class
}

// Ontology is a loaded class graph: subclass edges plus per-relationship
// domain/range pairs. Queries walk the SubClassOf closure of both arguments.
type Ontology struct {
	// SubClassOf maps a class to its direct superclasses.
	SubClassOf map[Class][]Class

	// DomainRange lists the allowed class pairs per relationship.
	DomainRange map[Relationship][]ClassPair
}

// maxAncestorDepth bounds the superclass walk so malformed graphs with
// cycles fail the query instead of hanging.
const maxAncestorDepth = 32

// Allows reports whether the relationship admits (src, dst) considering
// subclassing. It returns an error when either class has no ancestry in the
// graph or the walk exceeds the depth bound; callers treat errors as "ask the
// example tables instead".
func (o *Ontology) Allows(rel Relationship, src, dst Class) (bool, error) {
	pairs, ok := o.DomainRange[rel]
	if !ok {
		return false, fmt.Errorf("relationship %q not in ontology", rel)
	}

	srcSet, err := o.ancestors(src)
	if err != nil {
		return false, err
	}
	dstSet, err := o.ancestors(dst)
	if err != nil {
		return false, err
	}

	for _, p := range pairs {
		if srcSet[p.Domain] && dstSet[p.Range] {
			return true, nil
		}
	}
	return false, nil
}

// ancestors returns the reflexive transitive SubClassOf closure of c.
func (o *Ontology) ancestors(c Class) (map[Class]bool, error) {
	if _, known := o.SubClassOf[c]; !known {
		return nil, fmt.Errorf("class %q not in ontology", c)
	}

	seen := map[Class]bool{c: true}
	frontier := []Class{c}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth > maxAncestorDepth {
			return nil, fmt.Errorf("subclass walk exceeded depth %d at %q", maxAncestorDepth, c)
		}
		var next []Class
		for _, cur := range frontier {
			for _, parent := range o.SubClassOf[cur] {
				if !seen[parent] {
					seen[parent] = true
					next = append(next, parent)
				}
			}
		}
		frontier = next
	}
	return seen, nil
}

// DefaultOntology returns the built-in MEP connection graph.
func DefaultOntology() *Ontology {
	return &Ontology{
		SubClassOf: map[Class][]Class{
			ClassLineElement: {},
			ClassPipe:        {ClassLineElement},
			ClassDuct:        {ClassLineElement},
			ClassCableTray:   {ClassLineElement},
			ClassConduit:     {ClassLineElement},
			ClassWire:        {ClassLineElement},

			ClassEquipment:  {},
			ClassPump:       {ClassEquipment},
			ClassAirHandler: {ClassEquipment},
			ClassPanel:      {ClassEquipment},

			ClassTerminal: {},
			ClassFixture:  {ClassTerminal},
			ClassDiffuser: {ClassTerminal},

			ClassAccessory: {},
			ClassValve:     {ClassAccessory},
			ClassDamper:    {ClassAccessory},
		},
		DomainRange: map[Relationship][]ClassPair{
			RelConnectsTo: {
				{Domain: ClassLineElement, Range: ClassLineElement},
				{Domain: ClassLineElement, Range: ClassAccessory},
				{Domain: ClassAccessory, Range: ClassLineElement},
			},
			RelSupplies: {
				{Domain: ClassEquipment, Range: ClassLineElement},
				{Domain: ClassLineElement, Range: ClassTerminal},
			},
			RelDrainsTo: {
				{Domain: ClassTerminal, Range: ClassLineElement},
				{Domain: ClassLineElement, Range: ClassLineElement},
			},
			RelControls: {
				{Domain: ClassEquipment, Range: ClassAccessory},
			},
		},
	}
}

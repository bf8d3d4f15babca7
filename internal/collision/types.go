// Package collision finds spatially interfering element pairs. The detector
// orchestrates candidate selection and classification; the actual overlap
// test is delegated to an Intersector so the geometric backend can be
// swapped without touching the batch logic.
package collision

import (
	"context"

	"github.com/fyrsmithlabs/mepd/internal/element"
)

// Class buckets a collision by what kind of members are involved. Classes
// are also the resolution processing order: beam and column hits are dealt
// with before general structure, and structure before MEP-to-MEP.
type Class string

const (
	ClassBeamColumn Class = "beam_column"
	ClassStructure  Class = "structure"
	ClassMEP        Class = "mep"
)

// rank orders classes for resolution processing.
func (c Class) rank() int {
	switch c {
	case ClassBeamColumn:
		return 0
	case ClassStructure:
		return 1
	default:
		return 2
	}
}

// Pair is one detected collision. A and B are canonicalized so the
// lexicographically smaller ID always comes first, making pairs stable
// regardless of detection order.
type Pair struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Class Class  `json:"class"`
}

// NewPair builds a canonicalized pair.
func NewPair(a, b string, class Class) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b, Class: class}
}

// Involves reports whether id is a member of the pair.
func (p Pair) Involves(id string) bool {
	return p.A == id || p.B == id
}

// Intersector decides whether two elements physically interfere. Predicate
// failures on one pair never abort a detection batch.
type Intersector interface {
	Intersects(ctx context.Context, a, b element.Element) (bool, error)
}

// Classify buckets a pair of kinds. Beam and column involvement wins over
// wall and slab, which wins over plain MEP.
func Classify(a, b element.Kind) Class {
	if isBeamColumn(a) || isBeamColumn(b) {
		return ClassBeamColumn
	}
	if isStructure(a) || isStructure(b) {
		return ClassStructure
	}
	return ClassMEP
}

func isBeamColumn(k element.Kind) bool {
	return k == element.KindBeam || k == element.KindColumn
}

func isStructure(k element.Kind) bool {
	return k == element.KindWall || k == element.KindSlab
}

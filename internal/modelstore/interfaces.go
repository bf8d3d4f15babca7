// Package modelstore defines the model-graph collaborators the engines
// consume, plus two reference implementations: an in-memory store for tests
// and standalone runs, and an embedded SQLite store.
package modelstore

import (
	"context"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// Store is the element-graph collaborator: fetch elements, persist adjusted
// geometry, create hanger nodes and relationship edges.
type Store interface {
	// Element returns the element with the given id, or ErrElementNotFound.
	Element(ctx context.Context, id string) (element.Element, error)

	// ElementsByLevel returns the elements at a level, optionally filtered
	// by kind.
	ElementsByLevel(ctx context.Context, level string, kinds ...element.Kind) ([]element.Element, error)

	// SaveElement inserts or replaces an element.
	SaveElement(ctx context.Context, el element.Element) error

	// UpdateGeometry replaces an element's centerline path.
	UpdateGeometry(ctx context.Context, id string, path []geometry.Point3D) error

	// CreateHanger persists a hanger node.
	CreateHanger(ctx context.Context, h HangerNode) error

	// CreateRelationship persists an edge between two nodes.
	CreateRelationship(ctx context.Context, rel Relationship) error

	// StructuresNear returns structural members at the level whose envelope
	// comes within radius of pos in plan view.
	StructuresNear(ctx context.Context, level string, pos geometry.Point3D, radius float64) ([]element.Element, error)
}

// ObstacleProvider supplies nearby obstacle geometry by bounding box.
type ObstacleProvider interface {
	// Obstacles returns the obstacles at a level, optionally clipped to
	// plan-view bounds and filtered by kind.
	Obstacles(ctx context.Context, level string, bounds *geometry.Rect, kinds ...element.Kind) ([]element.Obstacle, error)
}

// Counter reports model-graph cardinalities for status surfaces. Both bundled
// stores implement it.
type Counter interface {
	// Counts returns the number of stored elements and hangers.
	Counts(ctx context.Context) (elements, hangers int, err error)
}

package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

// Memory is an in-memory Store and ObstacleProvider. Obstacle views are
// derived from stored structural elements. Safe for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	elements      map[string]element.Element
	hangers       map[string]HangerNode
	relationships []Relationship
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		elements: make(map[string]element.Element),
		hangers:  make(map[string]HangerNode),
	}
}

// Element implements Store.
func (m *Memory) Element(ctx context.Context, id string) (element.Element, error) {
	if id == "" {
		return element.Element{}, ErrEmptyElementID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	el, ok := m.elements[id]
	if !ok {
		return element.Element{}, fmt.Errorf("element %q: %w", id, ErrElementNotFound)
	}
	return copyElement(el), nil
}

// ElementsByLevel implements Store.
func (m *Memory) ElementsByLevel(ctx context.Context, level string, kinds ...element.Kind) ([]element.Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []element.Element
	for _, el := range m.elements {
		if el.Level != level {
			continue
		}
		if !kindMatches(el.Kind, kinds) {
			continue
		}
		out = append(out, copyElement(el))
	}
	return out, nil
}

// SaveElement implements Store.
func (m *Memory) SaveElement(ctx context.Context, el element.Element) error {
	if el.ID == "" {
		return ErrEmptyElementID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements[el.ID] = copyElement(el)
	return nil
}

// UpdateGeometry implements Store.
func (m *Memory) UpdateGeometry(ctx context.Context, id string, path []geometry.Point3D) error {
	if id == "" {
		return ErrEmptyElementID
	}
	if len(path) < 2 {
		return ErrEmptyPath
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.elements[id]
	if !ok {
		return fmt.Errorf("element %q: %w", id, ErrElementNotFound)
	}
	el.Path = append([]geometry.Point3D(nil), path...)
	m.elements[id] = el
	return nil
}

// CreateHanger implements Store.
func (m *Memory) CreateHanger(ctx context.Context, h HangerNode) error {
	if h.ID == "" {
		return ErrEmptyElementID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hangers[h.ID] = h
	return nil
}

// CreateRelationship implements Store.
func (m *Memory) CreateRelationship(ctx context.Context, rel Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relationships = append(m.relationships, rel)
	return nil
}

// StructuresNear implements Store.
func (m *Memory) StructuresNear(ctx context.Context, level string, pos geometry.Point3D, radius float64) ([]element.Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []element.Element
	for _, el := range m.elements {
		if el.Level != level || !el.Kind.IsStructural() {
			continue
		}
		if el.Envelope().XY().Expand(radius).Contains(pos.XY()) {
			out = append(out, copyElement(el))
		}
	}
	return out, nil
}

// Obstacles implements ObstacleProvider. Without an explicit kind filter it
// returns structural members only.
func (m *Memory) Obstacles(ctx context.Context, level string, bounds *geometry.Rect, kinds ...element.Kind) ([]element.Obstacle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []element.Obstacle
	for _, el := range m.elements {
		if el.Level != level {
			continue
		}
		if len(kinds) == 0 {
			if !el.Kind.IsStructural() {
				continue
			}
		} else if !kindMatches(el.Kind, kinds) {
			continue
		}
		ob := element.ObstacleOf(el)
		if bounds != nil && !ob.Footprint().Intersects(*bounds) {
			continue
		}
		out = append(out, ob)
	}
	return out, nil
}

// Counts implements Counter.
func (m *Memory) Counts(ctx context.Context) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.elements), len(m.hangers), nil
}

// Hangers returns the persisted hanger nodes. Test and inspection helper.
func (m *Memory) Hangers() []HangerNode {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]HangerNode, 0, len(m.hangers))
	for _, h := range m.hangers {
		out = append(out, h)
	}
	return out
}

// Relationships returns the persisted edges. Test and inspection helper.
func (m *Memory) Relationships() []Relationship {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Relationship(nil), m.relationships...)
}

// Snapshot is the JSON shape of a model snapshot file.
type Snapshot struct {
	Elements []element.Element `json:"elements"`
}

// LoadSnapshot reads a JSON model snapshot into the store and returns the
// number of elements loaded.
func (m *Memory) LoadSnapshot(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("parse snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, el := range snap.Elements {
		if el.ID == "" {
			return 0, fmt.Errorf("snapshot element without id: %w", ErrEmptyElementID)
		}
		m.elements[el.ID] = copyElement(el)
	}
	return len(snap.Elements), nil
}

func copyElement(el element.Element) element.Element {
	el.Path = append([]geometry.Point3D(nil), el.Path...)
	return el
}

func kindMatches(k element.Kind, kinds []element.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

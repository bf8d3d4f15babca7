package modelstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/fyrsmithlabs/mepd/internal/element"
	"github.com/fyrsmithlabs/mepd/internal/geometry"
)

const schema = `
CREATE TABLE IF NOT EXISTS elements (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	system        TEXT NOT NULL DEFAULT '',
	level         TEXT NOT NULL DEFAULT '',
	priority      INTEGER NOT NULL DEFAULT 0,
	diameter_mm   REAL NOT NULL DEFAULT 0,
	width_mm      REAL NOT NULL DEFAULT 0,
	height_mm     REAL NOT NULL DEFAULT 0,
	base_offset_m REAL NOT NULL DEFAULT 0,
	path          TEXT NOT NULL DEFAULT '[]',
	bounds        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_elements_level ON elements(level);

CREATE TABLE IF NOT EXISTS hangers (
	id            TEXT PRIMARY KEY,
	level         TEXT NOT NULL DEFAULT '',
	position      TEXT NOT NULL,
	hanger_type   TEXT NOT NULL,
	standard_code TEXT NOT NULL,
	detail_code   TEXT NOT NULL,
	spacing_m     REAL NOT NULL,
	space_id      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS relationships (
	from_id TEXT NOT NULL,
	to_id   TEXT NOT NULL,
	kind    TEXT NOT NULL,
	PRIMARY KEY (from_id, to_id, kind)
);
`

// SQLite is an embedded Store and ObstacleProvider backed by a single-file
// database. Paths and bounds are stored as JSON columns.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const elementColumns = "id, kind, system, level, priority, diameter_mm, width_mm, height_mm, base_offset_m, path, bounds"

// Element implements Store.
func (s *SQLite) Element(ctx context.Context, id string) (element.Element, error) {
	if id == "" {
		return element.Element{}, ErrEmptyElementID
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+elementColumns+" FROM elements WHERE id = ?", id)

	el, err := scanElement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return element.Element{}, fmt.Errorf("element %q: %w", id, ErrElementNotFound)
	}
	return el, err
}

// ElementsByLevel implements Store.
func (s *SQLite) ElementsByLevel(ctx context.Context, level string, kinds ...element.Kind) ([]element.Element, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+elementColumns+" FROM elements WHERE level = ?", level)
	if err != nil {
		return nil, fmt.Errorf("query elements: %w", err)
	}
	defer rows.Close()

	var out []element.Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		if kindMatches(el.Kind, kinds) {
			out = append(out, el)
		}
	}
	return out, rows.Err()
}

// SaveElement implements Store.
func (s *SQLite) SaveElement(ctx context.Context, el element.Element) error {
	if el.ID == "" {
		return ErrEmptyElementID
	}
	pathJSON, err := json.Marshal(el.Path)
	if err != nil {
		return fmt.Errorf("encode path: %w", err)
	}
	boundsJSON := ""
	if el.Kind.IsStructural() {
		b, err := json.Marshal(el.Bounds)
		if err != nil {
			return fmt.Errorf("encode bounds: %w", err)
		}
		boundsJSON = string(b)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO elements (`+elementColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			kind = excluded.kind,
			system = excluded.system,
			level = excluded.level,
			priority = excluded.priority,
			diameter_mm = excluded.diameter_mm,
			width_mm = excluded.width_mm,
			height_mm = excluded.height_mm,
			base_offset_m = excluded.base_offset_m,
			path = excluded.path,
			bounds = excluded.bounds`,
		el.ID, string(el.Kind), string(el.System), el.Level, el.Priority,
		el.DiameterMM, el.WidthMM, el.HeightMM, el.BaseOffsetM,
		string(pathJSON), boundsJSON,
	)
	if err != nil {
		return fmt.Errorf("save element %q: %w", el.ID, err)
	}
	return nil
}

// UpdateGeometry implements Store.
func (s *SQLite) UpdateGeometry(ctx context.Context, id string, path []geometry.Point3D) error {
	if id == "" {
		return ErrEmptyElementID
	}
	if len(path) < 2 {
		return ErrEmptyPath
	}
	pathJSON, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("encode path: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE elements SET path = ? WHERE id = ?", string(pathJSON), id)
	if err != nil {
		return fmt.Errorf("update geometry %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("element %q: %w", id, ErrElementNotFound)
	}
	return nil
}

// CreateHanger implements Store.
func (s *SQLite) CreateHanger(ctx context.Context, h HangerNode) error {
	if h.ID == "" {
		return ErrEmptyElementID
	}
	pos, err := json.Marshal(h.Position)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO hangers
			(id, level, position, hanger_type, standard_code, detail_code, spacing_m, space_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Level, string(pos), h.Type, h.StandardCode, h.DetailCode, h.SpacingM, h.SpaceID,
	)
	if err != nil {
		return fmt.Errorf("create hanger %q: %w", h.ID, err)
	}
	return nil
}

// CreateRelationship implements Store.
func (s *SQLite) CreateRelationship(ctx context.Context, rel Relationship) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO relationships (from_id, to_id, kind)
		VALUES (?, ?, ?)`,
		rel.FromID, rel.ToID, rel.Kind,
	)
	if err != nil {
		return fmt.Errorf("create relationship %s-%s: %w", rel.FromID, rel.ToID, err)
	}
	return nil
}

// Counts implements Counter.
func (s *SQLite) Counts(ctx context.Context) (int, int, error) {
	var elements, hangers int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM elements").Scan(&elements); err != nil {
		return 0, 0, fmt.Errorf("count elements: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hangers").Scan(&hangers); err != nil {
		return 0, 0, fmt.Errorf("count hangers: %w", err)
	}
	return elements, hangers, nil
}

// StructuresNear implements Store. The level's structural members are
// filtered in memory; the table stays small per level.
func (s *SQLite) StructuresNear(ctx context.Context, level string, pos geometry.Point3D, radius float64) ([]element.Element, error) {
	els, err := s.ElementsByLevel(ctx, level,
		element.KindBeam, element.KindColumn, element.KindWall, element.KindSlab)
	if err != nil {
		return nil, err
	}

	var out []element.Element
	for _, el := range els {
		if el.Envelope().XY().Expand(radius).Contains(pos.XY()) {
			out = append(out, el)
		}
	}
	return out, nil
}

// Obstacles implements ObstacleProvider. Without an explicit kind filter it
// returns structural members only.
func (s *SQLite) Obstacles(ctx context.Context, level string, bounds *geometry.Rect, kinds ...element.Kind) ([]element.Obstacle, error) {
	els, err := s.ElementsByLevel(ctx, level, kinds...)
	if err != nil {
		return nil, err
	}

	var out []element.Obstacle
	for _, el := range els {
		if len(kinds) == 0 && !el.Kind.IsStructural() {
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanElement(row rowScanner) (element.Element, error) {
	var (
		el         element.Element
		kind       string
		system     string
		pathJSON   string
		boundsJSON string
	)
	err := row.Scan(&el.ID, &kind, &system, &el.Level, &el.Priority,
		&el.DiameterMM, &el.WidthMM, &el.HeightMM, &el.BaseOffsetM,
		&pathJSON, &boundsJSON)
	if err != nil {
		return element.Element{}, err
	}
	el.Kind = element.Kind(kind)
	el.System = element.System(system)

	if err := json.Unmarshal([]byte(pathJSON), &el.Path); err != nil {
		return element.Element{}, fmt.Errorf("decode path for %q: %w", el.ID, err)
	}
	if boundsJSON != "" {
		if err := json.Unmarshal([]byte(boundsJSON), &el.Bounds); err != nil {
			return element.Element{}, fmt.Errorf("decode bounds for %q: %w", el.ID, err)
		}
	}
	return el, nil
}

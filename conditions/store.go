package conditions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Object is one stored payload with its validity interval [From, Until)
// in ms.
type Object struct {
	Path    string
	From    int64
	Until   int64
	Payload []byte
	Created time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS objects (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	path        TEXT    NOT NULL,
	valid_from  INTEGER NOT NULL,
	valid_until INTEGER NOT NULL,
	payload     BLOB    NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS objects_path_validity ON objects (path, valid_from, valid_until);
`

// Store keeps conditions objects in an SQLite file. When intervals
// overlap, the most recently stored object wins.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open conditions db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create conditions schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores v as JSON valid in [from, until).
func (s *Store) Put(ctx context.Context, path string, from, until int64, v any) error {
	if until <= from {
		return fmt.Errorf("empty validity [%d, %d) for %s", from, until, path)
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return s.PutRaw(ctx, Object{Path: path, From: from, Until: until, Payload: payload})
}

// PutRaw stores an already encoded object.
func (s *Store) PutRaw(ctx context.Context, obj Object) error {
	if !json.Valid(obj.Payload) {
		return fmt.Errorf("payload of %s is not valid JSON", obj.Path)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO objects (path, valid_from, valid_until, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		obj.Path, obj.From, obj.Until, obj.Payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert %s: %w", obj.Path, err)
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, path string, timestamp int64, dst any) error {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM objects
		 WHERE path = ? AND valid_from <= ? AND ? < valid_until
		 ORDER BY id DESC LIMIT 1`,
		path, timestamp, timestamp).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s at %d: %w", path, timestamp, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// List returns the objects stored under path ordered by validity start.
func (s *Store) List(ctx context.Context, path string) ([]Object, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, valid_from, valid_until, payload, created_at FROM objects
		 WHERE path = ? ORDER BY valid_from, id`, path)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	defer rows.Close()

	var objs []Object
	for rows.Next() {
		var obj Object
		var created int64
		if err := rows.Scan(&obj.Path, &obj.From, &obj.Until, &obj.Payload, &created); err != nil {
			return nil, err
		}
		obj.Created = time.UnixMilli(created)
		objs = append(objs, obj)
	}
	return objs, rows.Err()
}

// Memory is an in-process Provider. Overlapping objects resolve to the
// one starting last.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]Object
	lookups int
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]Object)}
}

// Put stores v valid in [from, until).
func (m *Memory) Put(path string, from, until int64, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = append(m.objects[path], Object{Path: path, From: from, Until: until, Payload: payload, Created: time.Now()})
	sort.SliceStable(m.objects[path], func(i, j int) bool {
		return m.objects[path][i].From < m.objects[path][j].From
	})
	return nil
}

func (m *Memory) Fetch(_ context.Context, path string, timestamp int64, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++

	objs := m.objects[path]
	for i := len(objs) - 1; i >= 0; i-- {
		if objs[i].From <= timestamp && timestamp < objs[i].Until {
			return json.Unmarshal(objs[i].Payload, dst)
		}
	}
	return fmt.Errorf("%s at %d: %w", path, timestamp, ErrNotFound)
}

// Lookups counts Fetch calls.
func (m *Memory) Lookups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookups
}

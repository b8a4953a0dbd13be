// Package store persists bfcloud instances: a SQLite table of instance
// metadata and one snapshot file per instance.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrInstanceNotFound indicates the requested instance doesn't exist
var ErrInstanceNotFound = errors.New("instance not found")

// MaxStoredAtLength bounds the snapshot path kept in a record.
const MaxStoredAtLength = 255

// State is the lifecycle state of an instance.
type State string

const (
	StateNotExists State = "Not exists"
	StateAvailable State = "Available"
	StateComputing State = "Computing"
)

func (s State) valid() bool {
	switch s {
	case StateNotExists, StateAvailable, StateComputing:
		return true
	}
	return false
}

// Instance is one row of the bvm_instances table.
type Instance struct {
	ID        int64
	State     State
	StoredAt  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Records handles SQLite storage for instance metadata
type Records struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenRecords opens (creating if needed) the database at dbPath.
func OpenRecords(dbPath string) (*Records, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS bvm_instances (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		state TEXT NOT NULL,
		stored_at TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Records{db: db}, nil
}

// Close closes the database connection
func (r *Records) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Create inserts a new record and returns it with its assigned ID.
func (r *Records) Create(ctx context.Context, state State, storedAt string) (*Instance, error) {
	if !state.valid() {
		return nil, fmt.Errorf("creating instance: unknown state %q", state)
	}
	if len(storedAt) > MaxStoredAtLength {
		return nil, fmt.Errorf("creating instance: stored_at longer than %d bytes", MaxStoredAtLength)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO bvm_instances (state, stored_at, created_at, updated_at) VALUES (?, ?, ?, ?)",
		string(state), storedAt, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating instance: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("creating instance: %w", err)
	}
	return &Instance{ID: id, State: state, StoredAt: storedAt, CreatedAt: now, UpdatedAt: now}, nil
}

// Get retrieves a record by ID.
func (r *Records) Get(ctx context.Context, id int64) (*Instance, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, state, stored_at, created_at, updated_at FROM bvm_instances WHERE id = ?", id)
	inst, err := scanInstance(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%d", ErrInstanceNotFound, id)
		}
		return nil, fmt.Errorf("querying instance: %w", err)
	}
	return inst, nil
}

// List returns all records ordered by ID.
func (r *Records) List(ctx context.Context) ([]*Instance, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, state, stored_at, created_at, updated_at FROM bvm_instances ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing instances: %w", err)
	}
	defer rows.Close()

	var out []*Instance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, fmt.Errorf("listing instances: %w", err)
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

// SetState updates the state of an existing record.
func (r *Records) SetState(ctx context.Context, id int64, state State) error {
	if !state.valid() {
		return fmt.Errorf("updating instance: unknown state %q", state)
	}
	return r.update(ctx, id, "UPDATE bvm_instances SET state = ?, updated_at = ? WHERE id = ?",
		string(state), time.Now().UTC().UnixNano(), id)
}

// MarkDeleted sets the record to StateNotExists and clears its snapshot path.
func (r *Records) MarkDeleted(ctx context.Context, id int64) error {
	return r.update(ctx, id, "UPDATE bvm_instances SET state = ?, stored_at = '', updated_at = ? WHERE id = ?",
		string(StateNotExists), time.Now().UTC().UnixNano(), id)
}

func (r *Records) update(ctx context.Context, id int64, query string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating instance: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d", ErrInstanceNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInstance(s scanner) (*Instance, error) {
	var (
		inst             Instance
		state            string
		storedAt         sql.NullString
		created, updated int64
	)
	if err := s.Scan(&inst.ID, &state, &storedAt, &created, &updated); err != nil {
		return nil, err
	}
	inst.State = State(state)
	inst.StoredAt = storedAt.String
	inst.CreatedAt = time.Unix(0, created).UTC()
	inst.UpdatedAt = time.Unix(0, updated).UTC()
	return &inst, nil
}

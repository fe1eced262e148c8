// Package store persists session snapshots in SQLite so an annotation run
// can be stopped and resumed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"labelflow/internal/session"
)

// ErrNotFound is returned when no snapshot matches.
var ErrNotFound = errors.New("snapshot not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    position    INTEGER NOT NULL,
    total       INTEGER NOT NULL,
    complete    INTEGER NOT NULL DEFAULT 0,
    annotating  INTEGER NOT NULL DEFAULT 0,
    body        TEXT NOT NULL,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_updated ON snapshots(updated_at);
`

// timeLayout is fixed width so that timestamps sort as text in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Info summarizes a stored snapshot without decoding its records.
type Info struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Position   int       `json:"position"`
	Total      int       `json:"total"`
	Complete   bool      `json:"complete"`
	Annotating bool      `json:"annotating"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store wraps an SQLite database of snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option customises Open behaviour.
type Option func(*Store)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (or creates) the database at path and applies the schema.
// Parent directories are created as needed.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, p := range pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}

	_, err := s.db.ExecContext(ctx, schema)

	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts the snapshot or replaces the stored one with the same id.
func (s *Store) Save(ctx context.Context, snap session.Snapshot) error {
	if snap.ID == "" {
		return errors.New("save snapshot: empty id")
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", snap.ID, err)
	}

	now := s.now().UTC().Format(timeLayout)

	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (id, name, position, total, complete, annotating, body, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    position = excluded.position,
    total = excluded.total,
    complete = excluded.complete,
    annotating = excluded.annotating,
    body = excluded.body,
    updated_at = excluded.updated_at`,
		snap.ID, snap.Name, snap.Cursor.Position, len(snap.Records),
		snap.Cursor.Complete, snap.Annotating, string(body), now, now)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.ID, err)
	}

	return nil
}

// Load returns the snapshot with the given id.
func (s *Store) Load(ctx context.Context, id string) (session.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE id = ?`, id)
	return decode(row, id)
}

// Latest returns the most recently saved snapshot.
func (s *Store) Latest(ctx context.Context) (session.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots ORDER BY updated_at DESC, rowid DESC LIMIT 1`)
	return decode(row, "latest")
}

func decode(row *sql.Row, id string) (session.Snapshot, error) {
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return session.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		return session.Snapshot{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}

	var snap session.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return session.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}

	return snap, nil
}

// List returns every stored snapshot, most recently saved first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, position, total, complete, annotating, created_at, updated_at
FROM snapshots ORDER BY updated_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info

	for rows.Next() {
		var (
			info             Info
			created, updated string
		)

		if err := rows.Scan(&info.ID, &info.Name, &info.Position, &info.Total,
			&info.Complete, &info.Annotating, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		var err error

		if info.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("snapshot %s: created_at: %w", info.ID, err)
		}

		if info.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("snapshot %s: updated_at: %w", info.ID, err)
		}

		out = append(out, info)
	}

	return out, rows.Err()
}

// Delete removes the snapshot with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}

	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

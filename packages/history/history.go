// Package history records executed requests in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	// SQLite driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/abdul-hamid-achik/rq/packages/core/runner"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id          TEXT PRIMARY KEY,
	created_at  INTEGER NOT NULL,
	file        TEXT NOT NULL,
	name        TEXT NOT NULL,
	method      TEXT NOT NULL,
	url         TEXT NOT NULL,
	status      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	error       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_created_at ON entries (created_at);
`

// ErrNotFound is returned by Get when no entry matches.
var ErrNotFound = errors.New("history entry not found")

// Entry is one executed request. Status is 0 when no response arrived.
type Entry struct {
	ID         string
	Time       time.Time
	File       string
	Name       string
	Method     string
	URL        string
	Status     int
	DurationMs int64
	Error      string
}

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append stores e, assigning an ID and timestamp when they are unset.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, created_at, file, name, method, url, status, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Time.UnixNano(), e.File, e.Name, e.Method, e.URL, e.Status, e.DurationMs, e.Error)
	if err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit of 0 or less
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT id, created_at, file, name, method, url, status, duration_ms, error
		FROM entries ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// Get finds an entry by ID or unique ID prefix.
func (s *Store) Get(ctx context.Context, idPrefix string) (*Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, file, name, method, url, status, duration_ms, error
		 FROM entries WHERE id LIKE ? || '%' LIMIT 2`, idPrefix)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var found []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idPrefix)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("history id prefix %q is ambiguous", idPrefix)
	}
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries`)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	var e Entry
	var created int64
	if err := rows.Scan(&e.ID, &created, &e.File, &e.Name, &e.Method, &e.URL, &e.Status, &e.DurationMs, &e.Error); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	e.Time = time.Unix(0, created)
	return &e, nil
}

// FromResult builds an entry for a finished request. Skipped requests
// produce nil.
func FromResult(file string, rr *runner.RequestResult) *Entry {
	if rr.Skipped {
		return nil
	}

	e := &Entry{
		File:       file,
		Name:       rr.Name,
		DurationMs: rr.Duration.Milliseconds(),
	}
	switch {
	case rr.Request != nil:
		e.Method = rr.Request.Method
		e.URL = rr.Request.URL
	case rr.Template != nil:
		e.Method = rr.Template.Method
		e.URL = rr.Template.URL.String()
	}
	if rr.Response != nil {
		e.Status = rr.Response.StatusCode
	}
	if rr.Error != nil {
		e.Error = rr.Error.Error()
	}
	return e
}

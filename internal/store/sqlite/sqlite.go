package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/sitekeeper/internal/store"
)

// DB implements store.Store on SQLite (modernc.org/sqlite driver, CGO-free).
// Use ":memory:" for an in-memory database.
type DB struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS site_events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			event TEXT NOT NULL,
			mode TEXT NOT NULL,
			pid INTEGER NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_site_events_name ON site_events(name);`,
		`CREATE INDEX IF NOT EXISTS idx_site_events_occurred ON site_events(occurred_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) RecordEvent(ctx context.Context, rec store.Record) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_events(name, event, mode, pid, detail, occurred_at)
		VALUES(?, ?, ?, ?, ?, ?);`,
		rec.Name, string(rec.Event), rec.Mode, rec.PID, rec.Detail, rec.OccurredAt.UTC())
	return err
}

func (s *DB) Events(ctx context.Context, name string, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, event, mode, pid, detail, occurred_at
		FROM site_events
		WHERE name=?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?;`, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]store.Record, error) {
	out := make([]store.Record, 0)
	for rows.Next() {
		var r store.Record
		var ev string
		if err := rows.Scan(&r.ID, &r.Name, &ev, &r.Mode, &r.PID, &r.Detail, &r.OccurredAt); err != nil {
			return nil, err
		}
		r.Event = store.EventType(ev)
		out = append(out, r)
	}
	return out, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/sitekeeper/internal/store"
)

// DB implements store.Store on PostgreSQL via the pgx stdlib driver.
type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS site_events(
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			event TEXT NOT NULL,
			mode TEXT NOT NULL,
			pid INTEGER NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_site_events_name ON site_events(name);`,
		`CREATE INDEX IF NOT EXISTS idx_site_events_occurred ON site_events(occurred_at);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) RecordEvent(ctx context.Context, rec store.Record) error {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO site_events(name, event, mode, pid, detail, occurred_at)
		VALUES($1, $2, $3, $4, $5, $6);`,
		rec.Name, string(rec.Event), rec.Mode, rec.PID, rec.Detail, rec.OccurredAt.UTC())
	return err
}

func (p *DB) Events(ctx context.Context, name string, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, name, event, mode, pid, detail, occurred_at
		FROM site_events
		WHERE name=$1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2;`, name, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
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

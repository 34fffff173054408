package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/sitekeeper/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func TestRecordAndQueryEvents(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	events := []store.Record{
		{Name: "blog", Event: store.EventStart, Mode: "background", PID: 100, OccurredAt: base},
		{Name: "blog", Event: store.EventStop, Mode: "background", PID: 100, OccurredAt: base.Add(time.Second)},
		{Name: "api", Event: store.EventStart, Mode: "session", PID: 200, OccurredAt: base},
	}
	for _, e := range events {
		if err := db.RecordEvent(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := db.Events(ctx, "blog", 10)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d", len(got))
	}
	// newest first
	if got[0].Event != store.EventStop || got[1].Event != store.EventStart {
		t.Fatalf("order = %v %v", got[0].Event, got[1].Event)
	}
	if got[0].Mode != "background" || got[0].PID != 100 {
		t.Fatalf("record = %+v", got[0])
	}
}

func TestEventsLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		rec := store.Record{
			Name: "s", Event: store.EventRestart, Mode: "background",
			OccurredAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		if err := db.RecordEvent(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.Events(ctx, "s", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("limit ignored: %d", len(got))
	}
}

func TestEventsUnknownSite(t *testing.T) {
	db := newTestDB(t)
	got, err := db.Events(context.Background(), "nope", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
}

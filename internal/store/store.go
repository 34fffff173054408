// Package store persists site lifecycle events (starts, stops, restarts,
// watchdog interventions) for later inspection. Persistence is optional:
// the supervisor runs fine with no store configured.
package store

import (
	"context"
	"time"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventStart           EventType = "start"
	EventStop            EventType = "stop"
	EventRestart         EventType = "restart"
	EventWatchdogRestart EventType = "watchdog_restart"
)

// Record is one lifecycle event for one site. Detail carries the error
// text for failed operations and is empty on success.
type Record struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Event      EventType `json:"event"`
	Mode       string    `json:"mode"`
	PID        int       `json:"pid"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Store is the minimal history sink. Implementations must be safe for
// concurrent use.
type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordEvent(ctx context.Context, rec Record) error
	Events(ctx context.Context, name string, limit int) ([]Record, error)
	Close() error
}

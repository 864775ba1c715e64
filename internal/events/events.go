// Package events implements the behavioral event log: the Event model,
// its persistence interface, and the ingestion service.
//
// Events arrive from the browser extension (paste, tab switch, window
// blur, keystroke, ...) and are appended to a single table. Nothing is
// ever updated in place; the only destructive operation is a bulk clear.
package events

import (
	"context"
	"errors"
	"time"
)

// Errors
var (
	ErrMissingType  = errors.New("events: event type is required")
	ErrInvalidType  = errors.New("events: event type contains invalid characters")
	ErrDataTooLarge = errors.New("events: data payload has too many keys")
	ErrInvalidLimit = errors.New("events: limit must not be negative")
	ErrStorage      = errors.New("events: storage failure")
)

// Event is a single recorded browser behavior.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp int64          `json:"timestamp"` // milliseconds since epoch
	SessionID string         `json:"session"`
	IP        string         `json:"ip,omitempty"`
}

// Store defines the persistence interface for the event log.
type Store interface {
	// Append inserts a new event and returns its assigned id.
	Append(ctx context.Context, event *Event) (int64, error)

	// CountTotal returns the number of stored events.
	CountTotal(ctx context.Context) (int, error)

	// CountByType returns per-type event counts, one entry per distinct
	// type present.
	CountByType(ctx context.Context) (map[string]int, error)

	// ListRecent returns up to limit events, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Event, error)

	// Clear deletes every event and returns the pre-deletion count.
	Clear(ctx context.Context) (int, error)

	// Ping reports whether the underlying medium is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Default listing limits for the query and debug paths.
const (
	DefaultListLimit  = 50
	DefaultDebugLimit = 20
)

// NowMillis returns the current wall-clock time in milliseconds since
// epoch, the unit events carry on the wire.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

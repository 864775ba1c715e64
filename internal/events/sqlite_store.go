package events

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore persists events in a single SQLite table. A single write
// connection with WAL journaling gives the single-writer discipline the
// service assumes.
type SQLiteStore struct {
	db *sql.DB
}

// schemaSQL mirrors migrations/00001_create_events.sql so a fresh
// database is usable without running the migration tool first.
var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		data TEXT,
		timestamp INTEGER NOT NULL,
		session_id TEXT NOT NULL DEFAULT 'session_1',
		ip_address TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
	`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events(event_type)`,
}

// NewSQLiteStore opens (or creates) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("events: failed to open database: %w", err)
	}
	// Single writer; SQLite serializes writes anyway, this keeps the
	// driver from queueing on a busy handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range schemaSQL {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("events: failed to initialize schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Append(ctx context.Context, event *Event) (int64, error) {
	data := event.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("events: failed to encode data: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO events (event_type, data, timestamp, session_id, ip_address)
		VALUES (?, ?, ?, ?, ?)
	`, event.Type, string(payload), event.Timestamp, event.SessionID, event.IP)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	event.ID = id
	return id, nil
}

func (s *SQLiteStore) CountTotal(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return n, nil
}

func (s *SQLiteStore) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM events GROUP BY event_type
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		counts[eventType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return counts, nil
}

func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]*Event, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, COALESCE(data, ''), timestamp, session_id, COALESCE(ip_address, '')
		FROM events
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer func() { _ = rows.Close() }()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		var raw string
		if err := rows.Scan(&e.ID, &e.Type, &raw, &e.Timestamp, &e.SessionID, &e.IP); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}
		e.Data = decodeData(raw)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return events, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events`)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	cleared, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return int(cleared), nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for health checks and metrics.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// decodeData parses the stored data column, tolerating rows written
// before the column was populated.
func decodeData(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil || data == nil {
		return map[string]any{}
	}
	return data
}

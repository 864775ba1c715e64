package events

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a thread-safe in-memory event log. Used when no
// database path is configured (data will not persist) and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	events []*Event
	nextID int64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Append(ctx context.Context, event *Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := &Event{
		ID:        m.nextID,
		Type:      event.Type,
		Timestamp: event.Timestamp,
		SessionID: event.SessionID,
		IP:        event.IP,
		Data:      make(map[string]any, len(event.Data)),
	}
	for k, v := range event.Data {
		stored.Data[k] = v
	}

	m.nextID++ // ids are never reused, even across Clear
	m.events = append(m.events, stored)
	event.ID = stored.ID
	return stored.ID, nil
}

func (m *MemoryStore) CountTotal(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events), nil
}

func (m *MemoryStore) CountByType(ctx context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range m.events {
		counts[e.Type]++
	}
	return counts, nil
}

func (m *MemoryStore) ListRecent(ctx context.Context, limit int) ([]*Event, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Event, len(m.events))
	copy(out, m.events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Clear(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cleared := len(m.events)
	m.events = nil
	return cleared, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

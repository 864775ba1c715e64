package events

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_AppendAssignsSequentialIDs(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		id, err := store.Append(ctx, &Event{Type: "KEYSTROKE", Timestamp: int64(i)})
		require.NoError(t, err)
		assert.Equal(t, int64(i), id)
	}

	total, err := store.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestMemoryStore_IDsSurviveClear(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id1, err := store.Append(ctx, &Event{Type: "PASTE_EVENT", Timestamp: 1})
	require.NoError(t, err)

	cleared, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	id2, err := store.Append(ctx, &Event{Type: "PASTE_EVENT", Timestamp: 2})
	require.NoError(t, err)
	assert.Greater(t, id2, id1, "ids must never be reused")
}

func TestMemoryStore_AppendCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := map[string]any{"key": "original"}
	_, err := store.Append(ctx, &Event{Type: "PASTE_EVENT", Timestamp: 1, Data: data})
	require.NoError(t, err)

	// Mutating the caller's map must not affect the stored event.
	data["key"] = "mutated"

	list, err := store.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "original", list[0].Data["key"])
}

func TestMemoryStore_CountByType(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, eventType := range []string{"KEYSTROKE", "KEYSTROKE", "PASTE_EVENT"} {
		_, err := store.Append(ctx, &Event{Type: eventType, Timestamp: 1})
		require.NoError(t, err)
	}

	counts, err := store.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"KEYSTROKE": 2, "PASTE_EVENT": 1}, counts)
}

func TestMemoryStore_ListRecent_NewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, &Event{Type: "A", Timestamp: 100})
	store.Append(ctx, &Event{Type: "B", Timestamp: 300})
	store.Append(ctx, &Event{Type: "C", Timestamp: 200})

	list, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "B", list[0].Type)
	assert.Equal(t, "C", list[1].Type)
	assert.Equal(t, "A", list[2].Type)
}

func TestMemoryStore_ListRecent_TiesBreakByID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.Append(ctx, &Event{Type: "FIRST", Timestamp: 100})
	store.Append(ctx, &Event{Type: "SECOND", Timestamp: 100})

	list, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "SECOND", list[0].Type)
}

func TestMemoryStore_ListRecent_Limit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Append(ctx, &Event{Type: "KEYSTROKE", Timestamp: int64(i)})
	}

	list, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = store.ListRecent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 0)

	_, err = store.ListRecent(ctx, -1)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestMemoryStore_Clear_Empty(t *testing.T) {
	store := NewMemoryStore()

	cleared, err := store.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cleared)
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Append(ctx, &Event{Type: "KEYSTROKE", Timestamp: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total, err := store.CountTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, total)

	// All ids distinct
	list, err := store.ListRecent(ctx, 50)
	require.NoError(t, err)
	seen := make(map[int64]bool)
	for _, e := range list {
		assert.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
	}
}

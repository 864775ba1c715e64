package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore errors on every operation.
type failingStore struct{}

var errBroken = errors.New("store broken")

func (f *failingStore) Append(context.Context, *Event) (int64, error) { return 0, errBroken }
func (f *failingStore) CountTotal(context.Context) (int, error)       { return 0, errBroken }
func (f *failingStore) CountByType(context.Context) (map[string]int, error) {
	return nil, errBroken
}
func (f *failingStore) ListRecent(context.Context, int) ([]*Event, error) { return nil, errBroken }
func (f *failingStore) Clear(context.Context) (int, error)                { return 0, errBroken }
func (f *failingStore) Ping(context.Context) error                        { return errBroken }
func (f *failingStore) Close() error                                      { return nil }

// captureEmitter records emitted events.
type captureEmitter struct {
	events []map[string]any
}

func (c *captureEmitter) EmitEvent(event map[string]any) {
	c.events = append(c.events, event)
}

func setupEventsRouter(store Store, configure func(*Handler)) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(NewService(store, "session_1"), store)
	if configure != nil {
		configure(handler)
	}
	r := gin.New()
	api := r.Group("/api")
	handler.RegisterRoutes(api)
	return r
}

func postEvent(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/events", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSubmit_Success(t *testing.T) {
	store := NewMemoryStore()
	router := setupEventsRouter(store, nil)

	w := postEvent(t, router, map[string]any{
		"type":      "PASTE_EVENT",
		"timestamp": 1700000000000,
		"data":      map[string]any{"length": 42},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Status      string  `json:"status"`
		Message     string  `json:"message"`
		EventID     int64   `json:"event_id"`
		RiskScore   float64 `json:"risk_score"`
		Timestamp   int64   `json:"timestamp"`
		TotalEvents int     `json:"total_events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Event recorded", resp.Message)
	assert.Equal(t, int64(1), resp.EventID)
	assert.Equal(t, 0.6, resp.RiskScore)
	assert.Equal(t, int64(1700000000000), resp.Timestamp)
	assert.Equal(t, 1, resp.TotalEvents)
}

func TestSubmit_MissingType_400AndNothingStored(t *testing.T) {
	store := NewMemoryStore()
	router := setupEventsRouter(store, nil)

	w := postEvent(t, router, map[string]any{"data": map[string]any{"x": 1}})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_type", resp.Error)

	total, err := store.CountTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestSubmit_MalformedJSON_400(t *testing.T) {
	router := setupEventsRouter(NewMemoryStore(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/events", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestSubmit_StorageError_500(t *testing.T) {
	router := setupEventsRouter(&failingStore{}, nil)

	w := postEvent(t, router, map[string]any{"type": "KEYSTROKE"})

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "storage_error", resp.Error)
}

func TestSubmit_EmitsToLiveFeed(t *testing.T) {
	emitter := &captureEmitter{}
	router := setupEventsRouter(NewMemoryStore(), func(h *Handler) {
		h.WithEvents(emitter)
	})

	postEvent(t, router, map[string]any{"type": "TAB_SWITCH"})

	require.Len(t, emitter.events, 1)
	assert.Equal(t, "TAB_SWITCH", emitter.events[0]["type"])
	assert.Equal(t, 0.4, emitter.events[0]["risk_score"])
}

func TestList_ReturnsNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	router := setupEventsRouter(store, nil)

	postEvent(t, router, map[string]any{"type": "A", "timestamp": 100})
	postEvent(t, router, map[string]any{"type": "B", "timestamp": 300})
	postEvent(t, router, map[string]any{"type": "C", "timestamp": 200})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/events", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Events []struct {
			Type    string `json:"type"`
			Session string `json:"session"`
		} `json:"events"`
		Count     int    `json:"count"`
		TotalInDB int    `json:"total_in_db"`
		Timestamp string `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.Equal(t, 3, resp.Count)
	assert.Equal(t, 3, resp.TotalInDB)
	assert.Equal(t, "B", resp.Events[0].Type)
	assert.Equal(t, "C", resp.Events[1].Type)
	assert.Equal(t, "A", resp.Events[2].Type)
	assert.Equal(t, "session_1", resp.Events[0].Session)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestList_LimitApplied(t *testing.T) {
	router := setupEventsRouter(NewMemoryStore(), nil)

	for i := 0; i < 5; i++ {
		postEvent(t, router, map[string]any{"type": "KEYSTROKE"})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/events?limit=2", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count     int `json:"count"`
		TotalInDB int `json:"total_in_db"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 5, resp.TotalInDB)
}

func TestList_InvalidLimit_400(t *testing.T) {
	router := setupEventsRouter(NewMemoryStore(), nil)

	for _, raw := range []string{"-1", "abc", "1.5"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/events?limit="+raw, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", raw)
	}
}

func TestList_HidesIPByDefault(t *testing.T) {
	store := NewMemoryStore()
	_, err := NewService(store, "session_1").Submit(context.Background(),
		&SubmitRequest{Type: "KEYSTROKE"}, "203.0.113.9")
	require.NoError(t, err)

	router := setupEventsRouter(store, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/events", nil)
	router.ServeHTTP(w, req)

	var resp struct {
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	_, present := resp.Events[0]["ip"]
	assert.False(t, present)
}

func TestList_ExposesIPWhenEnabled(t *testing.T) {
	store := NewMemoryStore()
	_, err := NewService(store, "session_1").Submit(context.Background(),
		&SubmitRequest{Type: "KEYSTROKE"}, "203.0.113.9")
	require.NoError(t, err)

	router := setupEventsRouter(store, func(h *Handler) {
		h.WithClientIP(true)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/events", nil)
	router.ServeHTTP(w, req)

	var resp struct {
		Events []map[string]any `json:"events"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "203.0.113.9", resp.Events[0]["ip"])
}

func TestClear_ReturnsCount(t *testing.T) {
	store := NewMemoryStore()
	router := setupEventsRouter(store, nil)

	postEvent(t, router, map[string]any{"type": "PASTE_EVENT"})
	postEvent(t, router, map[string]any{"type": "KEYSTROKE"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/clear", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status         string `json:"status"`
		Message        string `json:"message"`
		ClearedCount   int    `json:"cleared_count"`
		RemainingCount *int   `json:"remaining_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "All events cleared", resp.Message)
	assert.Equal(t, 2, resp.ClearedCount)
	require.NotNil(t, resp.RemainingCount)
	assert.Equal(t, 0, *resp.RemainingCount)

	total, err := store.CountTotal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestClear_RemainingCountToggle(t *testing.T) {
	router := setupEventsRouter(NewMemoryStore(), func(h *Handler) {
		h.WithRemainingCount(false)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/clear", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, present := resp["remaining_count"]
	assert.False(t, present)
}

func TestClear_StorageError_500(t *testing.T) {
	router := setupEventsRouter(&failingStore{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/clear", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

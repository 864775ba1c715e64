package events

import (
	"context"

	"github.com/proctorwatch/proctorwatch/internal/risk"
	"github.com/proctorwatch/proctorwatch/internal/validation"
)

// SubmitRequest is a raw event payload from the extension.
type SubmitRequest struct {
	Type      string         `json:"type"`
	Timestamp *int64         `json:"timestamp,omitempty"` // milliseconds since epoch
	Data      map[string]any `json:"data,omitempty"`
}

// Receipt confirms a recorded event.
type Receipt struct {
	ID          int64   `json:"event_id"`
	Type        string  `json:"type"`
	Timestamp   int64   `json:"timestamp"`
	RiskScore   float64 `json:"risk_score"`
	TotalEvents int     `json:"total_events"`
}

// Service validates and ingests incoming events.
type Service struct {
	store     Store
	sessionID string
}

// NewService creates an ingestion service writing to store. Every event
// is stamped with sessionID (there is no real multi-session concept).
func NewService(store Store, sessionID string) *Service {
	return &Service{store: store, sessionID: sessionID}
}

// Submit validates a raw payload, persists it, and returns a receipt
// with the event's immediate risk score.
//
// The total count is a separate read after the write; a concurrent
// clear between the two can make it understate. That race is tolerated.
func (s *Service) Submit(ctx context.Context, req *SubmitRequest, clientIP string) (*Receipt, error) {
	eventType := validation.SanitizeString(req.Type, 64)
	if eventType == "" {
		return nil, ErrMissingType
	}
	if !validation.IsValidEventType(eventType) {
		return nil, ErrInvalidType
	}

	ts := NowMillis()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	data := req.Data
	if data == nil {
		data = map[string]any{}
	}
	if len(data) > validation.MaxDataKeys {
		return nil, ErrDataTooLarge
	}

	event := &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: ts,
		SessionID: s.sessionID,
		IP:        clientIP,
	}

	id, err := s.store.Append(ctx, event)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountTotal(ctx)
	if err != nil {
		return nil, err
	}

	return &Receipt{
		ID:          id,
		Type:        eventType,
		Timestamp:   ts,
		RiskScore:   risk.Weight(eventType),
		TotalEvents: total,
	}, nil
}

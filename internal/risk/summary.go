package risk

import (
	"context"
	"time"
)

// CountSource provides per-type event counts. Implemented by the
// events store.
type CountSource interface {
	CountByType(ctx context.Context) (map[string]int, error)
}

// Summary is a point-in-time view of aggregate risk.
type Summary struct {
	EventCounts map[string]int `json:"event_counts"`
	TotalEvents int            `json:"total_events"`
	OverallRisk float64        `json:"overall_risk"`
	RiskLevel   Level          `json:"risk_level"`
	LastUpdated string         `json:"last_updated"`
}

// SummaryService derives risk summaries from stored event counts.
// Every call re-reads the source; there is no caching.
type SummaryService struct {
	source CountSource
}

// NewSummaryService creates a summary service over the given counts.
func NewSummaryService(source CountSource) *SummaryService {
	return &SummaryService{source: source}
}

// Snapshot reads current counts and computes the aggregate risk.
func (s *SummaryService) Snapshot(ctx context.Context) (*Summary, error) {
	counts, err := s.source.CountByType(ctx)
	if err != nil {
		return nil, err
	}

	overall, level, err := Aggregate(counts)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	return &Summary{
		EventCounts: counts,
		TotalEvents: total,
		OverallRisk: Round3(overall),
		RiskLevel:   level,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Package risk implements heuristic risk scoring for interview events.
//
// Each event type carries a fixed weight in [0, 1]. The aggregate score
// caps every type's contribution at 1.0 so one noisy event type cannot
// dominate, normalizes by half the total event volume, and clamps the
// result to [0, 1]. The normalization formula is a design artifact that
// downstream consumers depend on numerically; do not "fix" it.
package risk

import (
	"errors"
	"math"
)

// Level is the coarse three-bucket classification of overall risk.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Thresholds for risk levels.
const (
	HighThreshold   = 0.7
	MediumThreshold = 0.4
)

// DefaultWeight applies to any event type not in the table.
const DefaultWeight = 0.2

// ErrInvalidCounts reports malformed count input.
var ErrInvalidCounts = errors.New("risk: event counts must not be negative")

// weights is the canonical per-type risk table.
var weights = map[string]float64{
	"PASTE_EVENT": 0.6,
	"TAB_SWITCH":  0.4,
	"WINDOW_BLUR": 0.3,
	"KEYSTROKE":   0.1,
	"COPY_EVENT":  0.5,
	"CUT_EVENT":   0.2,
	"TEST_EVENT":  0.0,
}

// aliases maps deprecated labels emitted by older extension builds to
// their canonical types.
var aliases = map[string]string{
	"COPY_PASTE": "COPY_EVENT",
}

// Weight returns the per-event risk weight for an event type.
// Unrecognized types score DefaultWeight.
func Weight(eventType string) float64 {
	if canonical, ok := aliases[eventType]; ok {
		eventType = canonical
	}
	if w, ok := weights[eventType]; ok {
		return w
	}
	return DefaultWeight
}

// Aggregate computes the overall risk scalar and level from per-type
// event counts. A type's contribution is min(count*weight, 1.0); the
// total is normalized by half the event volume and clamped to 1.0.
func Aggregate(counts map[string]int) (float64, Level, error) {
	totalRisk := 0.0
	totalEvents := 0

	for eventType, count := range counts {
		if count < 0 {
			return 0, LevelLow, ErrInvalidCounts
		}
		totalRisk += math.Min(float64(count)*Weight(eventType), 1.0)
		totalEvents += count
	}

	overall := 0.0
	if totalEvents > 0 {
		overall = math.Min(totalRisk/(float64(totalEvents)*0.5), 1.0)
	}

	return overall, levelFor(overall), nil
}

func levelFor(overall float64) Level {
	switch {
	case overall > HighThreshold:
		return LevelHigh
	case overall > MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Round3 rounds a score to 3 decimal places for presentation.
func Round3(score float64) float64 {
	return math.Round(score*1000) / 1000
}

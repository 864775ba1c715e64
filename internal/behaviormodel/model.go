package behaviormodel

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DefaultArtifactPath is where cmd/trainer writes the fitted model.
const DefaultArtifactPath = "ml_models/behavior_model.json"

// Model is a logistic-regression classifier over standardized features.
type Model struct {
	RunID        string    `json:"run_id"`
	TrainedAt    time.Time `json:"trained_at"`
	FeatureNames []string  `json:"feature_names"`
	Means        []float64 `json:"means"`
	Stds         []float64 `json:"stds"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// TrainConfig controls the gradient-descent fit.
type TrainConfig struct {
	LearningRate float64
	Epochs       int
}

// DefaultTrainConfig fits the synthetic dataset comfortably.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{LearningRate: 0.1, Epochs: 500}
}

// Train fits a logistic regression on samples.
func Train(samples []Sample, cfg TrainConfig) (*Model, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("behaviormodel: no training samples")
	}
	dims := len(samples[0].Features)
	for _, s := range samples {
		if len(s.Features) != dims {
			return nil, fmt.Errorf("behaviormodel: inconsistent feature dimensions")
		}
	}

	means, stds := standardization(samples, dims)

	m := &Model{
		RunID:        uuid.NewString(),
		TrainedAt:    time.Now().UTC(),
		FeatureNames: FeatureNames,
		Means:        means,
		Stds:         stds,
		Weights:      make([]float64, dims),
	}

	// Batch gradient descent on cross-entropy loss.
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		grad := make([]float64, dims)
		gradBias := 0.0
		for _, s := range samples {
			x := m.standardize(s.Features)
			err := m.probability(x) - float64(s.Label)
			for d := 0; d < dims; d++ {
				grad[d] += err * x[d]
			}
			gradBias += err
		}
		n := float64(len(samples))
		for d := 0; d < dims; d++ {
			m.Weights[d] -= cfg.LearningRate * grad[d] / n
		}
		m.Bias -= cfg.LearningRate * gradBias / n
	}

	return m, nil
}

// Predict returns the probability that a raw feature vector is
// AI-assisted.
func (m *Model) Predict(features []float64) float64 {
	return m.probability(m.standardize(features))
}

// Accuracy scores the model on a labeled set with a 0.5 threshold.
func (m *Model) Accuracy(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for _, s := range samples {
		predicted := 0
		if m.Predict(s.Features) >= 0.5 {
			predicted = 1
		}
		if predicted == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

// Save writes the model artifact as JSON, creating parent directories.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("behaviormodel: failed to create artifact dir: %w", err)
	}
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("behaviormodel: failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("behaviormodel: failed to write artifact: %w", err)
	}
	return nil
}

// Load reads a saved model artifact.
func Load(path string) (*Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("behaviormodel: failed to read artifact: %w", err)
	}
	var m Model
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, fmt.Errorf("behaviormodel: failed to decode artifact: %w", err)
	}
	return &m, nil
}

func (m *Model) standardize(features []float64) []float64 {
	x := make([]float64, len(features))
	for d, v := range features {
		x[d] = (v - m.Means[d]) / m.Stds[d]
	}
	return x
}

func (m *Model) probability(standardized []float64) float64 {
	z := m.Bias
	for d, v := range standardized {
		z += m.Weights[d] * v
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

func standardization(samples []Sample, dims int) (means, stds []float64) {
	means = make([]float64, dims)
	stds = make([]float64, dims)
	n := float64(len(samples))

	for _, s := range samples {
		for d := 0; d < dims; d++ {
			means[d] += s.Features[d]
		}
	}
	for d := 0; d < dims; d++ {
		means[d] /= n
	}

	for _, s := range samples {
		for d := 0; d < dims; d++ {
			diff := s.Features[d] - means[d]
			stds[d] += diff * diff
		}
	}
	for d := 0; d < dims; d++ {
		stds[d] = math.Sqrt(stds[d] / n)
		if stds[d] == 0 {
			stds[d] = 1 // constant feature, avoid division by zero
		}
	}
	return means, stds
}

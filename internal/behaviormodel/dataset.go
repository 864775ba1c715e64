// Package behaviormodel fits an offline classifier over synthetic
// interview-behavior features.
//
// This is a standalone training pipeline run by cmd/trainer. It writes
// a model artifact to disk and nothing in the serving path ever reads
// it back.
package behaviormodel

import "math/rand"

// FeatureNames, in sample vector order.
var FeatureNames = []string{
	"typing_variance",
	"paste_count",
	"tab_switch_count",
	"response_time_variance",
}

// Sample is one labeled feature vector.
type Sample struct {
	Features []float64
	Label    int // 1 = AI-assisted, 0 = genuine
}

// GenerateDataset fabricates n genuine/AI-assisted sample pairs.
//
// Genuine users show high typing variance, nearly no pastes, few tab
// switches, and high response-time variance. AI-assisted users are the
// mirror image: machine-steady typing, frequent pastes and tab
// switches, low response-time variance.
func GenerateDataset(rng *rand.Rand, n int) []Sample {
	samples := make([]Sample, 0, 2*n)
	for i := 0; i < n; i++ {
		samples = append(samples, Sample{
			Features: []float64{
				uniform(rng, 50, 200),
				float64(rng.Intn(2)),
				float64(rng.Intn(3)),
				uniform(rng, 100, 500),
			},
			Label: 0,
		})
		samples = append(samples, Sample{
			Features: []float64{
				uniform(rng, 10, 50),
				float64(2 + rng.Intn(3)),
				float64(3 + rng.Intn(5)),
				uniform(rng, 10, 100),
			},
			Label: 1,
		})
	}
	return samples
}

// Split shuffles samples and splits them into train and test sets.
// testFraction is clamped to (0, 1).
func Split(rng *rand.Rand, samples []Sample, testFraction float64) (train, test []Sample) {
	if testFraction <= 0 {
		testFraction = 0.2
	}
	if testFraction >= 1 {
		testFraction = 0.2
	}

	shuffled := make([]Sample, len(samples))
	copy(shuffled, samples)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := len(shuffled) - int(float64(len(shuffled))*testFraction)
	return shuffled[:cut], shuffled[cut:]
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

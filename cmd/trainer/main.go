// Command trainer generates a synthetic behavioral dataset, fits a
// logistic regression classifier over it, and writes the model artifact
// as JSON. The artifact is an offline analysis output; the server never
// loads it.
package main

import (
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/proctorwatch/proctorwatch/internal/behaviormodel"
)

func main() {
	var (
		samples = flag.Int("samples", 500, "number of sample pairs to generate")
		epochs  = flag.Int("epochs", 500, "gradient descent epochs")
		rate    = flag.Float64("rate", 0.1, "learning rate")
		seed    = flag.Int64("seed", 0, "random seed (0 = time-based)")
		output  = flag.String("output", behaviormodel.DefaultArtifactPath, "artifact output path")
	)
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	dataset := behaviormodel.GenerateDataset(rng, *samples)
	train, test := behaviormodel.Split(rng, dataset, 0.2)

	log.Printf("training on %d samples, evaluating on %d", len(train), len(test))

	model, err := behaviormodel.Train(train, behaviormodel.TrainConfig{
		LearningRate: *rate,
		Epochs:       *epochs,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	log.Printf("train accuracy: %.3f", model.Accuracy(train))
	log.Printf("test accuracy: %.3f", model.Accuracy(test))

	if err := model.Save(*output); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}
	log.Printf("model saved to %s (run %s)", *output, model.RunID)
}

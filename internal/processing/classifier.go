package processing

import (
	"context"
	"math/rand/v2"

	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/model"
)

// Classifier produces the sensitivity verdict at the end of a run.
type Classifier interface {
	Classify(ctx context.Context, id db.UUID) (model.Sensitivity, error)
}

// RandomClassifier simulates a content-safety model: roughly 70% of videos
// come back safe, the rest are flagged.
type RandomClassifier struct {
	SafeRatio float64
}

// compile-time check: *RandomClassifier must satisfy Classifier
var _ Classifier = (*RandomClassifier)(nil)

func NewRandomClassifier() *RandomClassifier {
	return &RandomClassifier{SafeRatio: 0.7}
}

func (c *RandomClassifier) Classify(ctx context.Context, id db.UUID) (model.Sensitivity, error) {
	safe := rand.Float64() < c.SafeRatio
	verdict := model.Sensitivity{IsSafe: &safe, Flags: []string{}}
	if !safe {
		verdict.Flags = []string{"simulated_nudity", "simulated_violence"}
	}
	return verdict, nil
}

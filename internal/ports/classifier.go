package ports

import (
	"context"
	"errors"

	"github.com/viralsafe/content-safety/internal/domain"
)

// ErrNoClassifier is returned when every configured remote classifier
// failed, or none is configured. The combiner decides what to do with it;
// the chain itself never falls back to heuristics.
var ErrNoClassifier = errors.New("no remote classifier available")

// ClassifierResult is a normalized remote text-classification outcome
type ClassifierResult struct {
	Signal           domain.RiskSignal
	ThreatLevel      string
	DetectedPatterns []string
}

// Classifier defines the contract for remote text classification.
// Implementations either return a valid result from some provider or
// ErrNoClassifier; individual provider failures are not surfaced.
type Classifier interface {
	Classify(ctx context.Context, content string) (*ClassifierResult, error)
}

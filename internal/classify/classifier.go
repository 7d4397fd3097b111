// Package classify decides whether a page image starts a new delivery note.
package classify

import (
	"context"
	"image"
	"sync"

	"github.com/joseph-ayodele/wz-splitter/constants"
)

// DefaultThreshold is the probability at or above which a page is a document start.
const DefaultThreshold = 0.5

// Result is a classifier verdict. Confidence is the probability of Label.
type Result struct {
	Label      constants.PageLabel
	Confidence float32
	Hint       string // identifier the classifier read itself, if any; unvalidated
}

// Classifier labels one page image.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (Result, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, img image.Image) (Result, error)

func (f ClassifierFunc) Classify(ctx context.Context, img image.Image) (Result, error) {
	return f(ctx, img)
}

// FromProbability maps a document-start probability onto a Result.
func FromProbability(p, threshold float32) Result {
	if p >= threshold {
		return Result{Label: constants.DocumentStart, Confidence: p}
	}
	return Result{Label: constants.Continuation, Confidence: 1 - p}
}

type serialized struct {
	mu   sync.Mutex
	next Classifier
}

// Serialized guards a shared classifier so concurrent sessions take turns.
func Serialized(next Classifier) Classifier {
	return &serialized{next: next}
}

func (s *serialized) Classify(ctx context.Context, img image.Image) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return s.next.Classify(ctx, img)
}

// Package ocr wraps the text-recognition engines used to read page images.
package ocr

import (
	"context"
	"image"
	"sync"
)

// TextExtractor recognises text on an image with the given preset.
// Empty text is a normal result, not an error.
type TextExtractor interface {
	ExtractText(ctx context.Context, img image.Image, preset Preset) (string, error)
}

// ExtractorFunc adapts a function to TextExtractor.
type ExtractorFunc func(ctx context.Context, img image.Image, preset Preset) (string, error)

func (f ExtractorFunc) ExtractText(ctx context.Context, img image.Image, preset Preset) (string, error) {
	return f(ctx, img, preset)
}

type serialized struct {
	mu   sync.Mutex
	next TextExtractor
}

// Serialized guards a single shared engine so concurrent sessions take turns.
func Serialized(next TextExtractor) TextExtractor {
	return &serialized{next: next}
}

func (s *serialized) ExtractText(ctx context.Context, img image.Image, preset Preset) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.next.ExtractText(ctx, img, preset)
}

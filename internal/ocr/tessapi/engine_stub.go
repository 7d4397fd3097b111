//go:build !(tesseract && cgo)

package tessapi

import (
	"context"
	"image"
	"log/slog"

	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
)

type Engine struct{}

func New(Config, *slog.Logger) (*Engine, error) {
	return nil, ErrUnavailable
}

func (*Engine) ExtractText(context.Context, image.Image, ocr.Preset) (string, error) {
	return "", ErrUnavailable
}

func (*Engine) Close() error { return nil }

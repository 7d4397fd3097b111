package classify

import (
	"context"
	"image"
	"strings"

	"github.com/joseph-ayodele/wz-splitter/constants"
	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
	"github.com/joseph-ayodele/wz-splitter/internal/wz"
)

// Header is the offline fallback classifier: it reads the page header and
// calls the page a document start when an identifier or a "WZ" marker shows up.
type Header struct {
	extractor ocr.TextExtractor
	fraction  float64
}

func NewHeader(extractor ocr.TextExtractor, fraction float64) *Header {
	if fraction <= 0 || fraction > 1 {
		fraction = 0.3
	}
	return &Header{extractor: extractor, fraction: fraction}
}

func (h *Header) Classify(ctx context.Context, img image.Image) (Result, error) {
	txt, err := h.extractor.ExtractText(ctx, ocr.CropTop(img, h.fraction), ocr.DefaultPresets[0])
	if err != nil {
		return Result{}, err
	}
	if _, ok := wz.Find(txt); ok {
		return Result{Label: constants.DocumentStart, Confidence: 0.9}, nil
	}
	if strings.Contains(txt, "WZ") {
		return Result{Label: constants.DocumentStart, Confidence: 0.6}, nil
	}
	return Result{Label: constants.Continuation, Confidence: 0.6}, nil
}

package evaluate

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/wz-splitter/constants"
	"github.com/joseph-ayodele/wz-splitter/internal/classify"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
	"github.com/joseph-ayodele/wz-splitter/internal/wz"
)

type Config struct {
	BlankTextThreshold int          // probe text shorter than this marks a blank page; default 100
	HeaderCropFraction float64      // default 0.3
	Presets            []ocr.Preset // header presets; default ocr.DefaultPresets
	SkipThorough       bool
}

// ClassifierAttempt names an identifier taken from the classifier's own reading.
const ClassifierAttempt = "classifier"

// Recognizer is the slow last-resort pass over the cropped header.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

type Evaluator struct {
	cfg        Config
	classifier classify.Classifier
	extractor  ocr.TextExtractor
	thorough   Recognizer
	logger     *slog.Logger
}

// New wires an evaluator. A nil thorough recognizer defaults to ocr.NewThorough
// over the same extractor.
func New(cfg Config, classifier classify.Classifier, extractor ocr.TextExtractor, thorough Recognizer, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BlankTextThreshold <= 0 {
		cfg.BlankTextThreshold = 100
	}
	if cfg.HeaderCropFraction <= 0 || cfg.HeaderCropFraction > 1 {
		cfg.HeaderCropFraction = 0.3
	}
	if len(cfg.Presets) == 0 {
		cfg.Presets = ocr.DefaultPresets
	}
	if thorough == nil {
		thorough = ocr.NewThorough(extractor)
	}
	return &Evaluator{cfg: cfg, classifier: classifier, extractor: extractor, thorough: thorough, logger: logger}
}

// Evaluate classifies the page and, for document starts, runs the extraction
// chain until an identifier is found. Engine errors are returned as is; a page
// without an identifier is not an error.
func (e *Evaluator) Evaluate(ctx context.Context, page int, img image.Image) (Evaluation, error) {
	start := time.Now()
	logger := common.LoggerFromContext(ctx, e.logger)
	ctx = common.WithPage(ctx, page)

	res, err := e.classifier.Classify(ctx, img)
	if err != nil {
		return Evaluation{}, fmt.Errorf("classify page %d: %w", page, err)
	}

	var ev Evaluation
	if res.Label == constants.DocumentStart {
		ev, err = e.resolveStart(ctx, page, img, res.Hint)
	} else {
		ev, err = e.probeContinuation(ctx, page, img)
	}
	if err != nil {
		return Evaluation{}, err
	}
	ev.Confidence = res.Confidence

	logger.Debug("page.evaluated",
		"page", page,
		"label", ev.Label(),
		"kind", ev.Kind.String(),
		"confidence", ev.Confidence,
		"identifier", ev.Identifier,
		"attempt", ev.Attempt,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ev, nil
}

func (e *Evaluator) probeContinuation(ctx context.Context, page int, img image.Image) (Evaluation, error) {
	txt, err := e.extractor.ExtractText(ctx, img, ocr.ProbePreset)
	if err != nil {
		return Evaluation{}, fmt.Errorf("probe page %d: %w", page, err)
	}
	n := utf8.RuneCountInString(txt)
	if n < e.cfg.BlankTextThreshold {
		ev := BlankPage(page)
		ev.TextLength = n
		return ev, nil
	}
	ev := Content(page)
	ev.TextLength = n
	return ev, nil
}

// attempt is one step of the extraction chain.
type attempt struct {
	name string
	run  func(ctx context.Context) (string, error)
}

// attempts lists the chain in order: full page, each header preset, then the
// thorough pass. The page image is never modified; crops are views.
func (e *Evaluator) attempts(img image.Image) []attempt {
	header := ocr.CropTop(img, e.cfg.HeaderCropFraction)

	chain := make([]attempt, 0, len(e.cfg.Presets)+2)
	chain = append(chain, attempt{
		name: ocr.FullPagePreset.Name,
		run: func(ctx context.Context) (string, error) {
			return e.extractor.ExtractText(ctx, img, ocr.FullPagePreset)
		},
	})
	for _, p := range e.cfg.Presets {
		chain = append(chain, attempt{
			name: p.Name,
			run: func(ctx context.Context) (string, error) {
				return e.extractor.ExtractText(ctx, header, p)
			},
		})
	}
	if !e.cfg.SkipThorough {
		chain = append(chain, attempt{
			name: ocr.ThoroughPreset.Name,
			run: func(ctx context.Context) (string, error) {
				return e.thorough.Recognize(ctx, header)
			},
		})
	}
	return chain
}

// resolveStart runs the OCR chain. When it finds nothing, an identifier the
// classifier read off the header is accepted if it has the WZ shape.
func (e *Evaluator) resolveStart(ctx context.Context, page int, img image.Image, hint string) (Evaluation, error) {
	chain := e.attempts(img)
	for i, a := range chain {
		txt, err := a.run(ctx)
		if err != nil {
			return Evaluation{}, fmt.Errorf("page %d attempt %s: %w", page, a.name, err)
		}
		if id, ok := wz.Find(txt); ok {
			ev := Started(page, id)
			ev.Attempt = a.name
			ev.Attempts = i + 1
			return ev, nil
		}
	}
	if id, ok := wz.Find(hint); ok {
		ev := Started(page, id)
		ev.Attempt = ClassifierAttempt
		ev.Attempts = len(chain)
		return ev, nil
	}
	ev := Unresolved(page)
	ev.Attempts = len(chain)
	return ev, nil
}

package app

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/wz-splitter/internal/archive"
	"github.com/joseph-ayodele/wz-splitter/internal/classify"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/core"
	"github.com/joseph-ayodele/wz-splitter/internal/evaluate"
	"github.com/joseph-ayodele/wz-splitter/internal/llm/openai"
	"github.com/joseph-ayodele/wz-splitter/internal/materialize"
	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
	"github.com/joseph-ayodele/wz-splitter/internal/ocr/tessapi"
	"github.com/joseph-ayodele/wz-splitter/internal/raster"
	repo "github.com/joseph-ayodele/wz-splitter/internal/repository"
)

// Pipeline is a fully wired processor plus the resources it holds.
type Pipeline struct {
	Processor *core.Processor
	Evaluator *evaluate.Evaluator
	closers   []func() error
	logger    *slog.Logger
}

// Build wires the stages described by cfg. journal may be nil; outputDir may
// be empty to use <input dir>/output.
func Build(cfg *common.Config, journal repo.SessionRepository, outputDir string, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{logger: logger}

	extractor, err := p.textExtractor(cfg.OCR)
	if err != nil {
		return nil, err
	}
	presets, err := ocr.LoadPresets(cfg.Evaluator.PresetsFile)
	if err != nil {
		p.Close()
		return nil, err
	}
	classifier, err := newClassifier(cfg, extractor, logger)
	if err != nil {
		p.Close()
		return nil, err
	}

	p.Evaluator = evaluate.New(evaluate.Config{
		BlankTextThreshold: cfg.Evaluator.BlankTextThreshold,
		HeaderCropFraction: cfg.Evaluator.HeaderCropFraction,
		Presets:            presets,
	}, classifier, extractor, nil, logger)

	rasterizer := raster.NewPoppler(raster.Config{
		PopplerPath: cfg.Raster.PopplerPath,
		DPI:         cfg.Raster.DPI,
		MaxPages:    cfg.Raster.MaxPages,
	}, ocr.ExecRunner{}, logger)
	materializer := materialize.New(materialize.Config{
		JPEGQuality: cfg.Output.JPEGQuality,
		DPI:         cfg.Raster.DPI,
	}, logger)

	p.Processor = core.NewProcessor(logger, rasterizer, p.Evaluator, materializer, archive.New(logger), journal, outputDir)
	logger.Info("pipeline ready",
		"ocr_engine", cfg.OCR.Engine,
		"classifier", cfg.Classifier.Backend,
		"presets", len(presets),
		"dpi", cfg.Raster.DPI,
	)
	return p, nil
}

// Close releases OCR clients and other held resources.
func (p *Pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			p.logger.Warn("pipeline close failed", "error", err)
		}
	}
	p.closers = nil
}

func (p *Pipeline) textExtractor(cfg common.OCRConfig) (ocr.TextExtractor, error) {
	switch cfg.Engine {
	case "tessapi":
		e, err := tessapi.New(tessapi.Config{
			Lang:        cfg.TesseractLang,
			TessdataDir: cfg.TessdataDir,
			PoolSize:    cfg.PoolSize,
		}, p.logger)
		if err != nil {
			return nil, err
		}
		p.closers = append(p.closers, e.Close)
		return e, nil
	case "cli", "":
		t := ocr.NewTesseract(ocr.Config{
			Tesseract:     cfg.Tesseract,
			TesseractLang: cfg.TesseractLang,
			TessdataDir:   cfg.TessdataDir,
			ArtifactDir:   cfg.ArtifactDir,
		}, ocr.ExecRunner{}, p.logger)
		if cfg.PoolSize <= 1 {
			return ocr.Serialized(t), nil
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
	}
}

func newClassifier(cfg *common.Config, extractor ocr.TextExtractor, logger *slog.Logger) (classify.Classifier, error) {
	switch cfg.Classifier.Backend {
	case "tfserving":
		return classify.NewTFServing(classify.TFServingConfig{
			URL:         cfg.Classifier.URL,
			InputWidth:  cfg.Classifier.InputWidth,
			InputHeight: cfg.Classifier.InputHeight,
			Threshold:   cfg.Classifier.Threshold,
			Timeout:     cfg.Classifier.Timeout,
		}, logger), nil
	case "openai":
		client := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		// one vision request in flight at a time
		return classify.Serialized(classify.NewVision(client)), nil
	case "header":
		return classify.NewHeader(extractor, cfg.Evaluator.HeaderCropFraction), nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier.Backend)
	}
}

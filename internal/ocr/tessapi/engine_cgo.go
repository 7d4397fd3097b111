//go:build tesseract && cgo

package tessapi

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
)

// Engine is a fixed-size pool of tesseract clients. Each client serves one
// request at a time; callers beyond PoolSize wait for a free client.
//
// The engine mode (OEM) is fixed when libtesseract initialises, so presets
// differing only in OEM run with the library default here.
type Engine struct {
	cfg     Config
	clients chan *gosseract.Client
	logger  *slog.Logger
}

func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	e := &Engine{cfg: cfg, clients: make(chan *gosseract.Client, cfg.PoolSize), logger: logger}
	for i := 0; i < cfg.PoolSize; i++ {
		c := gosseract.NewClient()
		if err := c.SetLanguage(cfg.Lang); err != nil {
			_ = c.Close()
			_ = e.Close()
			return nil, fmt.Errorf("tessapi: set language: %w", err)
		}
		if cfg.TessdataDir != "" {
			if err := c.SetTessdataPrefix(cfg.TessdataDir); err != nil {
				_ = c.Close()
				_ = e.Close()
				return nil, fmt.Errorf("tessapi: set tessdata prefix: %w", err)
			}
		}
		e.clients <- c
	}
	logger.Info("tesseract client pool ready", "size", cfg.PoolSize, "lang", cfg.Lang, "version", gosseract.Version())
	return e, nil
}

func (e *Engine) ExtractText(ctx context.Context, img image.Image, preset ocr.Preset) (string, error) {
	var c *gosseract.Client
	select {
	case c = <-e.clients:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { e.clients <- c }()

	data, err := ocr.PNGBytes(img)
	if err != nil {
		return "", fmt.Errorf("tessapi: encode: %w", err)
	}
	mode := gosseract.PSM_AUTO
	if preset.PSM >= 0 {
		mode = gosseract.PageSegMode(preset.PSM)
	}
	if err := c.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("tessapi: psm: %w", err)
	}
	// an empty whitelist clears a restriction left by the previous request
	if err := c.SetWhitelist(preset.Whitelist); err != nil {
		return "", fmt.Errorf("tessapi: whitelist: %w", err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("tessapi: set image: %w", err)
	}
	txt, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("tessapi %s: %w", preset.Name, err)
	}
	return ocr.Normalize(txt), nil
}

// Close releases every pooled client. It must not race with ExtractText.
func (e *Engine) Close() error {
	var first error
	for {
		select {
		case c := <-e.clients:
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		default:
			return first
		}
	}
}

// Package raster turns PDF files into ordered page images.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/ocr"
)

// Rasterizer renders every page of a PDF, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, path string) ([]image.Image, error)
}

type Config struct {
	PopplerPath string // directory holding pdftoppm; empty -> $PATH
	DPI         int    // default 200
	MaxPages    int    // 0 = no limit
	// SkipValidation disables the pdfcpu structural check before rendering.
	SkipValidation bool
}

// Poppler renders pages with pdftoppm.
type Poppler struct {
	cfg    Config
	bin    string
	runner ocr.Runner
	logger *slog.Logger
}

func NewPoppler(cfg Config, runner ocr.Runner, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner{}
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	bin := "pdftoppm"
	if cfg.PopplerPath != "" {
		bin = filepath.Join(cfg.PopplerPath, "pdftoppm")
	}
	return &Poppler{cfg: cfg, bin: bin, runner: runner, logger: logger}
}

func (p *Poppler) Rasterize(ctx context.Context, path string) ([]image.Image, error) {
	start := time.Now()
	if !p.cfg.SkipValidation {
		n, err := PageCount(path)
		if err != nil {
			return nil, common.EmptyOrBroken(path, err)
		}
		if n == 0 {
			return nil, common.EmptyOrBroken(path, nil)
		}
	}

	tmpDir, err := os.MkdirTemp("", "wz-pp-*")
	if err != nil {
		return nil, fmt.Errorf("raster temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("failed to remove temp dir", "path", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(p.cfg.DPI), "-png"}
	if p.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(p.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	// pdftoppm -r 200 -png <in.pdf> <tmp/page>
	if _, errb, err := p.runner.Run(ctx, p.bin, p.logger, args...); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, common.EmptyOrBroken(path, fmt.Errorf("pdftoppm: %w: %s", err, ocr.Truncate(strings.TrimSpace(string(errb)), 512)))
	}

	files, err := renderedPages(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, common.EmptyOrBroken(path, nil)
	}

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := decodePNG(f)
		if err != nil {
			return nil, fmt.Errorf("decode page %s: %w", filepath.Base(f), err)
		}
		pages = append(pages, img)
	}
	p.logger.Debug("pdf rasterized", "path", path, "pages", len(pages), "dpi", p.cfg.DPI, "elapsed_ms", time.Since(start).Milliseconds())
	return pages, nil
}

// PageCount reads the page count with pdfcpu; unreadable files fail here
// rather than inside pdftoppm.
func PageCount(path string) (int, error) {
	return api.PageCountFile(path)
}

// renderedPages lists prefix-N.png files ordered by page number. pdftoppm
// zero-pads N to the width of the page count, so lexical order is not enough
// when outputs from different runs are mixed.
func renderedPages(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	num := func(p string) int {
		s := strings.TrimSuffix(strings.TrimPrefix(p, prefix+"-"), ".png")
		n, err := strconv.Atoi(s)
		if err != nil {
			return -1
		}
		return n
	}
	sort.SliceStable(matches, func(i, j int) bool { return num(matches[i]) < num(matches[j]) })
	return matches, nil
}

func decodePNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

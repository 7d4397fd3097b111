// Package materialize writes one PDF per delivery note.
package materialize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/joseph-ayodele/wz-splitter/constants"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/session"
	"github.com/joseph-ayodele/wz-splitter/internal/wz"
)

type Config struct {
	JPEGQuality int // default 85
	DPI         int // resolution the pages were rendered at; default 200
}

// Document is one written artifact.
type Document struct {
	ID    string
	Path  string
	Pages []int
}

// Report lists the artifacts in the order they were written.
type Report struct {
	Documents []Document
}

func (r Report) Count() int { return len(r.Documents) }

type Materializer struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 85
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Materializer{cfg: cfg, logger: logger}
}

// Materialize writes <output>/<FileName(id)>.pdf for every group, in
// first-seen order. Existing files of the same name are replaced.
func (m *Materializer) Materialize(ctx context.Context, s *session.Session) (Report, error) {
	if err := s.RequireProcessed("materialize"); err != nil {
		return Report{}, err
	}
	logger := common.LoggerFromContext(ctx, m.logger)

	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output dir: %w", err)
	}

	var rep Report
	for _, g := range s.Result().Groups {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		images := make([]image.Image, 0, len(g.Pages))
		for _, p := range g.Pages {
			img, ok := s.Page(p)
			if !ok {
				return rep, fmt.Errorf("group %s references missing page %d", g.ID, p)
			}
			images = append(images, img)
		}

		path := filepath.Join(s.OutputDir, wz.FileName(g.ID)+"."+constants.PDFExt)
		if err := m.writePDF(path, images); err != nil {
			return rep, fmt.Errorf("write %s: %w", path, err)
		}
		rep.Documents = append(rep.Documents, Document{ID: g.ID, Path: path, Pages: g.Pages})
		logger.Info("document.written", "identifier", g.ID, "path", path, "pages", len(g.Pages))
	}
	return rep, nil
}

// pageRun is a stretch of consecutive pages sharing one pixel size, which
// pdfcpu can import with a single Import config.
type pageRun struct {
	size    image.Point
	readers []io.Reader
}

// writePDF assembles images into a PDF next to path, then renames it into place.
// Each page's media box is its pixel size at cfg.DPI.
func (m *Materializer) writePDF(path string, images []image.Image) error {
	var runs []pageRun
	for i, img := range images {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: m.cfg.JPEGQuality}); err != nil {
			return fmt.Errorf("encode page %d: %w", i, err)
		}
		size := img.Bounds().Size()
		if n := len(runs); n > 0 && runs[n-1].size == size {
			runs[n-1].readers = append(runs[n-1].readers, &buf)
			continue
		}
		runs = append(runs, pageRun{size: size, readers: []io.Reader{&buf}})
	}

	var doc []byte
	for _, run := range runs {
		var rs io.ReadSeeker
		if doc != nil {
			rs = bytes.NewReader(doc)
		}
		var out bytes.Buffer
		if err := api.ImportImages(rs, &out, run.readers, m.importConfig(run.size), nil); err != nil {
			return fmt.Errorf("assemble pdf: %w", err)
		}
		doc = out.Bytes()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".wz-*.pdf.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

// importConfig places an image of size px at 72/DPI points per pixel on a
// page of exactly that size.
func (m *Materializer) importConfig(px image.Point) *pdfcpu.Import {
	imp := pdfcpu.DefaultImportConfig()
	imp.DPI = m.cfg.DPI
	imp.Pos = types.BottomLeft
	imp.ScaleAbs = true
	imp.Scale = 1
	imp.UserDim = true
	imp.PageDim = &types.Dim{
		Width:  PointsAt(px.X, m.cfg.DPI),
		Height: PointsAt(px.Y, m.cfg.DPI),
	}
	return imp
}

// PointsAt converts a pixel length rendered at dpi into PDF points.
func PointsAt(px, dpi int) float64 {
	return float64(px) * 72 / float64(dpi)
}

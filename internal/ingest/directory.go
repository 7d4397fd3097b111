package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/core"
)

// SessionRunner processes one source file.
type SessionRunner interface {
	ProcessFile(ctx context.Context, path string) (core.Summary, error)
}

// FileResult is the outcome of one source file in a batch.
type FileResult struct {
	Path    string
	Summary core.Summary
	Skipped bool // not started because an earlier session failed
	Err     error
}

// DirStats summarizes a batch run.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
	Skipped   uint32
}

// ListPDFs returns the PDF files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func ListPDFs(dir string) ([]string, DirStats, error) {
	var stats DirStats
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		stats.Scanned++
		if !e.Type().IsRegular() || !isSource(e.Name()) {
			continue
		}
		stats.Matched++
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, stats, nil
}

// Batch runs sessions for a file or every PDF in a directory.
type Batch struct {
	runner  SessionRunner
	workers int
	logger  *slog.Logger
}

func NewBatch(runner SessionRunner, workers int, logger *slog.Logger) *Batch {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{runner: runner, workers: workers, logger: logger}
}

// Run processes path. The first failing session cancels the rest and its
// error is returned; sessions not yet started are reported as skipped.
func (b *Batch) Run(ctx context.Context, path string) ([]FileResult, DirStats, error) {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, DirStats{}, common.InvalidPath(path)
		}
		return nil, DirStats{}, common.WrapError(err, "stat path")
	}

	var files []string
	var stats DirStats
	switch {
	case st.Mode().IsRegular():
		if !isSource(path) {
			return nil, DirStats{Scanned: 1}, common.InvalidPath(path)
		}
		files = []string{path}
		stats = DirStats{Scanned: 1, Matched: 1}
	case st.IsDir():
		files, stats, err = ListPDFs(path)
		if err != nil {
			return nil, stats, err
		}
	default:
		return nil, DirStats{}, common.InvalidPath(path)
	}

	b.logger.Info("batch.start", "path", path, "files", len(files), "workers", b.workers)
	results := make([]FileResult, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, f := range files {
		results[i].Path = f
		g.Go(func() error {
			if gctx.Err() != nil {
				mu.Lock()
				results[i].Skipped = true
				stats.Skipped++
				mu.Unlock()
				return nil
			}
			// A failed sibling stops new files from starting; ones already
			// running finish against the caller's context.
			sum, err := b.runner.ProcessFile(ctx, f)

			mu.Lock()
			defer mu.Unlock()
			results[i].Summary = sum
			if err != nil {
				results[i].Err = err
				stats.Failed++
				return fmt.Errorf("%s: %w", filepath.Base(f), err)
			}
			stats.Succeeded++
			return nil
		})
	}
	err = g.Wait()

	b.logger.Info("batch.done",
		"path", path,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return results, stats, err
}

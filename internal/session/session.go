// Package session holds the per-file processing state.
package session

import (
	"errors"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/wz-splitter/constants"
	"github.com/joseph-ayodele/wz-splitter/internal/aggregate"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/evaluate"
)

// Session is the unit of work for one source PDF. It is owned by a single
// goroutine and is not safe for concurrent use.
type Session struct {
	ID        uuid.UUID
	Source    string
	OutputDir string
	StartedAt time.Time

	pages     []image.Image
	evals     []evaluate.Evaluation
	result    aggregate.Result
	processed bool
}

// New opens a session for source. An empty outputDir defaults to
// DefaultOutputDir(source).
func New(source, outputDir string, now time.Time) (*Session, error) {
	st, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.NotFound(source)
		}
		return nil, common.WrapError(err, "stat source")
	}
	if !st.Mode().IsRegular() {
		return nil, common.InvalidPath(source)
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir(source)
	}
	return &Session{
		ID:        uuid.New(),
		Source:    source,
		OutputDir: outputDir,
		StartedAt: now,
	}, nil
}

// DefaultOutputDir returns <dir>/output, where dir is path itself for a
// directory and the parent directory for a file.
func DefaultOutputDir(path string) string {
	dir := path
	if st, err := os.Stat(path); err != nil || !st.IsDir() {
		dir = filepath.Dir(path)
	}
	return filepath.Join(dir, constants.DefaultOutputDirName)
}

// ArchiveDir is the dated archive directory for an archival at t.
func (s *Session) ArchiveDir(t time.Time) string {
	return filepath.Join(s.OutputDir, t.Format(constants.ArchiveDateLayout))
}

// Complete stores the evaluation results and marks the session processed.
func (s *Session) Complete(pages []image.Image, evals []evaluate.Evaluation, result aggregate.Result) {
	s.pages = pages
	s.evals = evals
	s.result = result
	s.processed = true
}

func (s *Session) Processed() bool { return s.processed }

// RequireProcessed fails with ErrInvalidInvocationOrder until Complete ran.
func (s *Session) RequireProcessed(op string) error {
	if !s.processed {
		return common.InvalidInvocationOrder(op)
	}
	return nil
}

func (s *Session) Pages() []image.Image               { return s.pages }
func (s *Session) Evaluations() []evaluate.Evaluation { return s.evals }
func (s *Session) Result() aggregate.Result           { return s.result }

// Page returns the full-size raster of page i.
func (s *Session) Page(i int) (image.Image, bool) {
	if i < 0 || i >= len(s.pages) {
		return nil, false
	}
	return s.pages[i], true
}

// Release drops the page rasters once they are no longer needed.
func (s *Session) Release() {
	s.pages = nil
}

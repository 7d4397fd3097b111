// Package archive moves processed source files into the dated archive.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/session"
)

// Archiver relocates a session's source to <output>/<DD-MM-YYYY>/<base>.
// An existing file at the destination is left to the OS: rename replaces it.
type Archiver struct {
	now    func() time.Time
	logger *slog.Logger
}

func New(logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{now: time.Now, logger: logger}
}

// WithClock overrides the clock used to pick the archive date.
func (a *Archiver) WithClock(now func() time.Time) *Archiver {
	a.now = now
	return a
}

// Archive moves the source and returns its new path.
func (a *Archiver) Archive(ctx context.Context, s *session.Session) (string, error) {
	if err := s.RequireProcessed("archive"); err != nil {
		return "", err
	}
	dir := s.ArchiveDir(a.now())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(s.Source))
	if err := move(s.Source, dst); err != nil {
		return "", fmt.Errorf("archive %s: %w", s.Source, err)
	}
	common.LoggerFromContext(ctx, a.logger).Info("session.archived", "source", s.Source, "path", dst)
	return dst, nil
}

// move renames src to dst, copying across filesystems when rename cannot.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	st, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()
	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before it is emitted.
const DefaultDebounce = time.Second

type WatchConfig struct {
	Root        string        // directory to watch (not recursive)
	InitialScan bool          // emit PDFs already present in Root
	Debounce    time.Duration // wait for writes to a path to settle; 0 emits immediately
	Logger      *slog.Logger
}

// StartWatcher emits the path of every PDF created or rewritten in cfg.Root.
// Both channels are closed when ctx ends.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Root == "" {
		logger.Error("watcher start failed: no root provided")
		return nil, nil, errors.New("no root provided")
	}

	var initial []string
	if cfg.InitialScan {
		files, _, err := ListPDFs(cfg.Root)
		if err != nil {
			return nil, nil, err
		}
		initial = files
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}
	if err := w.Add(cfg.Root); err != nil {
		logger.Error("failed to add root directory", "root", cfg.Root, "error", err)
		_ = w.Close()
		return nil, nil, err
	}
	logger.Info("watcher.started", "root", cfg.Root, "initial", len(initial), "debounce", cfg.Debounce)

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		fired := make(chan string)
		timers := map[string]*time.Timer{}
		defer func() {
			for _, t := range timers {
				t.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isSource(e.Name) {
					continue
				}
				if cfg.Debounce <= 0 {
					if stillThere(e.Name) && !emit(e.Name) {
						return
					}
					continue
				}
				name := e.Name
				if t, ok := timers[name]; ok {
					t.Stop()
				}
				timers[name] = time.AfterFunc(cfg.Debounce, func() {
					select {
					case fired <- name:
					case <-ctx.Done():
					}
				})
			case p := <-fired:
				delete(timers, p)
				if !stillThere(p) {
					logger.Debug("watcher.vanished", "path", p)
					continue
				}
				if !emit(p) {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// stillThere drops events for files already moved away, such as a source
// archived right after it was written.
func stillThere(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joseph-ayodele/wz-splitter/internal/app"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/core"
	"github.com/joseph-ayodele/wz-splitter/internal/core/async"
	"github.com/joseph-ayodele/wz-splitter/internal/ingest"
	"github.com/joseph-ayodele/wz-splitter/internal/server"
	"github.com/joseph-ayodele/wz-splitter/internal/session"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		path    = flag.String("path", "", "PDF file or directory to process (required)")
		output  = flag.String("output", "", "output directory (default <input dir>/output)")
		watch   = flag.Bool("watch", false, "keep watching the directory for new PDFs")
		workers = flag.Int("workers", 0, "concurrent sessions (default WORKERS or 1)")
		dpi     = flag.Int("dpi", 0, "rasterization DPI (default RASTER_DPI or 200)")
	)
	flag.Parse()

	if *path == "" {
		printError("Error: --path is required\n")
		flag.Usage()
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if *workers > 0 {
		cfg.Watch.Workers = *workers
	}
	if *dpi > 0 {
		cfg.Raster.DPI = *dpi
	}
	logger := app.NewLogger(cfg.Log, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journal, err := app.OpenJournal(ctx, cfg.Journal, logger)
	if err != nil {
		logger.Error("failed to open session journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	pipe, err := app.Build(cfg, journal.Repository(), *output, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Close()

	if *watch {
		err = runWatch(ctx, cfg, pipe.Processor, *path, *output, logger)
	} else {
		err = runBatch(ctx, cfg, pipe.Processor, *path, logger)
	}
	if err != nil {
		logger.Error("wz-splitter failed", "error", err)
		if errors.Is(err, common.ErrInvalidPath) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func runBatch(ctx context.Context, cfg *common.Config, proc *core.Processor, path string, logger *slog.Logger) error {
	results, stats, err := ingest.NewBatch(proc, cfg.Watch.Workers, logger).Run(ctx, path)
	for _, r := range results {
		if r.Err != nil || r.Skipped {
			continue
		}
		logger.Info("file done",
			"source", filepath.Base(r.Path),
			"documents", len(r.Summary.Documents),
			"dropped", len(r.Summary.Dropped),
			"archived_to", r.Summary.ArchivePath,
		)
	}
	logger.Info("batch summary",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return err
}

func runWatch(ctx context.Context, cfg *common.Config, proc *core.Processor, dir, output string, logger *slog.Logger) error {
	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		return common.InvalidPath(dir)
	}
	if output == "" {
		output = session.DefaultOutputDir(dir)
	}

	var health *server.Health
	if cfg.Server.HealthAddr != "" {
		health, err = server.Listen(cfg.Server.HealthAddr, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := health.Serve(ctx); err != nil {
				logger.Error("health server stopped", "error", err)
			}
		}()
	}

	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Watch.Workers),
		async.WithQueueSize(cfg.Watch.QueueSize),
		async.WithProcessTimeout(cfg.Watch.SessionTimeout),
	)

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        dir,
		InitialScan: cfg.Watch.InitialScan,
		Debounce:    ingest.DefaultDebounce,
		Logger:      logger,
	})
	if err != nil {
		queue.Shutdown(context.Background())
		return err
	}
	if health != nil {
		health.SetServing(true)
	}
	logger.Info(fmt.Sprintf("monitoring %s, output in %s", dir, output))

	heartbeat := time.NewTicker(cfg.Watch.Cooldown)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down...")
			if health != nil {
				health.SetServing(false)
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			queue.Shutdown(shutdownCtx)
			cancel()
			return nil
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := queue.Enqueue(ctx, async.Job{Path: p}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("failed to enqueue", "path", p, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		case <-heartbeat.C:
			logger.Debug("watching", "dir", dir)
		}
	}
}

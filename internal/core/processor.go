package core

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/wz-splitter/internal/aggregate"
	"github.com/joseph-ayodele/wz-splitter/internal/archive"
	"github.com/joseph-ayodele/wz-splitter/internal/common"
	"github.com/joseph-ayodele/wz-splitter/internal/evaluate"
	"github.com/joseph-ayodele/wz-splitter/internal/materialize"
	"github.com/joseph-ayodele/wz-splitter/internal/raster"
	"github.com/joseph-ayodele/wz-splitter/internal/repository"
	"github.com/joseph-ayodele/wz-splitter/internal/session"
)

// PageEvaluator evaluates a single page.
type PageEvaluator interface {
	Evaluate(ctx context.Context, page int, img image.Image) (evaluate.Evaluation, error)
}

// Summary describes one finished session.
type Summary struct {
	SessionID   uuid.UUID
	Source      string
	Pages       int
	Documents   []materialize.Document
	Dropped     []aggregate.Dropped
	Blank       []int
	ArchivePath string
	Elapsed     time.Duration
}

// Processor runs one source file from rasterization through archival.
// Stages run strictly in sequence; a failure before archival leaves the
// source where it was.
type Processor struct {
	logger       *slog.Logger
	rasterizer   raster.Rasterizer
	evaluator    PageEvaluator
	materializer *materialize.Materializer
	archiver     *archive.Archiver
	journal      repository.SessionRepository
	outputDir    string
	now          func() time.Time
}

// NewProcessor wires the stages. journal may be nil; outputDir may be empty
// to use the per-file default.
func NewProcessor(
	logger *slog.Logger,
	rasterizer raster.Rasterizer,
	evaluator PageEvaluator,
	materializer *materialize.Materializer,
	archiver *archive.Archiver,
	journal repository.SessionRepository,
	outputDir string,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if materializer == nil {
		materializer = materialize.New(materialize.Config{}, logger)
	}
	if archiver == nil {
		archiver = archive.New(logger)
	}
	return &Processor{
		logger:       logger,
		rasterizer:   rasterizer,
		evaluator:    evaluator,
		materializer: materializer,
		archiver:     archiver,
		journal:      journal,
		outputDir:    outputDir,
		now:          time.Now,
	}
}

// ProcessFile splits path into one PDF per delivery note and archives it.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Summary, error) {
	start := p.now()
	s, err := session.New(path, p.outputDir, start)
	if err != nil {
		p.logger.Error("session.open_failed", "source", path, "error", err)
		return Summary{Source: path}, err
	}
	logger := p.logger.With("session_id", s.ID.String(), "source", filepath.Base(path))
	ctx = common.WithLogger(common.WithSessionID(ctx, s.ID.String()), logger)
	ctx = common.WithSource(ctx, path)
	sum := Summary{SessionID: s.ID, Source: path}

	logger.Info("session.start", "output_dir", s.OutputDir)
	p.journalStart(ctx, logger, s)

	fail := func(stage string, err error) (Summary, error) {
		logger.Error("session.failed", "stage", stage, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		p.journalFailure(ctx, logger, s.ID, err)
		sum.Elapsed = time.Since(start)
		return sum, err
	}

	if err := p.process(ctx, s); err != nil {
		return fail("process", err)
	}
	res := s.Result()
	sum.Pages = len(s.Evaluations())
	sum.Dropped = res.Dropped
	sum.Blank = res.Blank

	rep, err := p.materializer.Materialize(ctx, s)
	if err != nil {
		return fail("materialize", err)
	}
	sum.Documents = rep.Documents
	s.Release()
	logger.Info(fmt.Sprintf("created %d documents out of %s", rep.Count(), filepath.Base(path)))
	if p.journal != nil {
		if err := p.journal.MarkMaterialized(ctx, s.ID, rep.Count()); err != nil {
			logger.Warn("journal.update_failed", "error", err)
		}
	}

	dst, err := p.archiver.Archive(ctx, s)
	if err != nil {
		return fail("archive", err)
	}
	sum.ArchivePath = dst
	logger.Info(fmt.Sprintf("moved %s to %s", filepath.Base(path), dst))

	if p.journal != nil {
		if err := p.journal.FinishSuccess(ctx, s.ID, repository.SessionOutcome{Documents: rep.Count(), ArchivePath: dst}); err != nil {
			logger.Warn("journal.update_failed", "error", err)
		}
	}

	sum.Elapsed = time.Since(start)
	logger.Info("session.done",
		"pages", sum.Pages,
		"documents", len(sum.Documents),
		"dropped", len(sum.Dropped),
		"blank", len(sum.Blank),
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum, nil
}

// Inspect evaluates path without writing or moving anything.
func (p *Processor) Inspect(ctx context.Context, path string) (*session.Session, error) {
	s, err := session.New(path, p.outputDir, p.now())
	if err != nil {
		return nil, err
	}
	ctx = common.WithSource(common.WithSessionID(ctx, s.ID.String()), path)
	if err := p.evaluateAll(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// process rasterizes, evaluates and folds, then marks the session processed
// and journals the page outcomes.
func (p *Processor) process(ctx context.Context, s *session.Session) error {
	if err := p.evaluateAll(ctx, s); err != nil {
		return err
	}
	res := s.Result()
	logger := common.LoggerFromContext(ctx, p.logger)
	for _, d := range res.Dropped {
		logger.Warn("page.dropped", "page", d.Page+1, "reason", d.Reason)
	}
	logger.Info("session.processed",
		"pages", len(s.Evaluations()),
		"groups", len(res.Groups),
		"dropped", len(res.Dropped),
		"blank", len(res.Blank),
	)
	if p.journal != nil {
		if err := p.journal.RecordPages(ctx, s.ID, s.Evaluations(), res); err != nil {
			logger.Warn("journal.update_failed", "error", err)
		}
	}
	return nil
}

func (p *Processor) evaluateAll(ctx context.Context, s *session.Session) error {
	pages, err := p.rasterizer.Rasterize(ctx, s.Source)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return common.EmptyOrBroken(s.Source, nil)
	}
	logger := common.LoggerFromContext(ctx, p.logger)
	logger.Debug("session.rasterized", "pages", len(pages))

	evals := make([]evaluate.Evaluation, 0, len(pages))
	for i, img := range pages {
		ev, err := p.evaluator.Evaluate(ctx, i, img)
		if err != nil {
			return err
		}
		evals = append(evals, ev)
	}
	s.Complete(pages, evals, aggregate.Fold(evals))
	return nil
}

func (p *Processor) journalStart(ctx context.Context, logger *slog.Logger, s *session.Session) {
	if p.journal == nil {
		return
	}
	if err := p.journal.Start(ctx, s); err != nil {
		logger.Warn("journal.start_failed", "error", err)
	}
}

func (p *Processor) journalFailure(ctx context.Context, logger *slog.Logger, id uuid.UUID, cause error) {
	if p.journal == nil {
		return
	}
	// written even when the session context was cancelled
	if err := p.journal.FinishFailure(context.WithoutCancel(ctx), id, cause.Error()); err != nil {
		logger.Warn("journal.update_failed", "error", err)
	}
}

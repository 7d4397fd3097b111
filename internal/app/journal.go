package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/wz-splitter/internal/common"
	repo "github.com/joseph-ayodele/wz-splitter/internal/repository"
)

// Journal is an opened session journal.
type Journal struct {
	DB       *repo.DB
	Sessions repo.SessionRepository
	logger   *slog.Logger
}

// OpenJournal connects, pings and migrates the journal. An empty DSN
// disables journaling and returns (nil, nil).
func OpenJournal(ctx context.Context, cfg common.JournalConfig, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		logger.Debug("session journal disabled")
		return nil, nil
	}
	db, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := repo.HealthCheck(ctx, db, cfg.DialTimeout, logger); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("journal health: %w", err)
	}
	if err := repo.Migrate(ctx, db); err != nil {
		db.Close(logger)
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	logger.Info("session journal ready", "dialect", db.Dialect)
	return &Journal{DB: db, Sessions: repo.NewSessionRepository(db, logger), logger: logger}, nil
}

func (j *Journal) Close() {
	if j == nil {
		return
	}
	j.DB.Close(j.logger)
}

// Repository returns the session repository, or nil for a disabled journal.
func (j *Journal) Repository() repo.SessionRepository {
	if j == nil {
		return nil
	}
	return j.Sessions
}

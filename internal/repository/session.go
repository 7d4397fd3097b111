package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/wz-splitter/constants"
	"github.com/joseph-ayodele/wz-splitter/internal/aggregate"
	"github.com/joseph-ayodele/wz-splitter/internal/entity"
	"github.com/joseph-ayodele/wz-splitter/internal/evaluate"
	"github.com/joseph-ayodele/wz-splitter/internal/session"
)

// SessionOutcome is what a successful session leaves behind.
type SessionOutcome struct {
	Documents   int
	ArchivePath string
}

type SessionRepository interface {
	Start(ctx context.Context, s *session.Session) error
	RecordPages(ctx context.Context, id uuid.UUID, evals []evaluate.Evaluation, res aggregate.Result) error
	MarkMaterialized(ctx context.Context, id uuid.UUID, documents int) error
	FinishSuccess(ctx context.Context, id uuid.UUID, out SessionOutcome) error
	FinishFailure(ctx context.Context, id uuid.UUID, message string) error
	List(ctx context.Context, from, to time.Time) ([]entity.Session, error)
	Pages(ctx context.Context, id uuid.UUID) ([]entity.SessionPage, error)
}

type sessionRepo struct {
	db  *DB
	log *slog.Logger
}

func NewSessionRepository(db *DB, log *slog.Logger) SessionRepository {
	if log == nil {
		log = slog.Default()
	}
	return &sessionRepo{db: db, log: log}
}

func (r *sessionRepo) Start(ctx context.Context, s *session.Session) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(
		`INSERT INTO sessions (id, source, output_dir, status, started_at) VALUES (?, ?, ?, ?, ?)`),
		s.ID.String(), s.Source, s.OutputDir, string(constants.SessionStatusRunning), s.StartedAt.UTC(),
	)
	if err != nil {
		r.log.Error("session start failed", "session_id", s.ID, "err", err)
		return fmt.Errorf("journal start: %w", err)
	}
	r.log.Debug("session journaled", "session_id", s.ID, "source", s.Source)
	return nil
}

// RecordPages stores every page outcome and marks the session PROCESSED.
func (r *sessionRepo) RecordPages(ctx context.Context, id uuid.UUID, evals []evaluate.Evaluation, res aggregate.Result) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal pages: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(
		`INSERT INTO session_pages (session_id, page, kind, label, identifier, confidence, attempt, outcome, group_id, reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("journal pages: %w", err)
	}
	defer stmt.Close()

	for _, p := range PageRecords(id, evals, res) {
		if _, err := stmt.ExecContext(ctx,
			p.SessionID.String(), p.Page, p.Kind, p.Label, nullable(p.Identifier), p.Confidence,
			nullable(p.Attempt), p.Outcome, nullable(p.GroupID), nullable(p.Reason),
		); err != nil {
			r.log.Error("session page insert failed", "session_id", id, "page", p.Page, "err", err)
			return fmt.Errorf("journal page %d: %w", p.Page, err)
		}
	}

	if _, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE sessions SET status = ?, pages = ?, dropped = ?, blank = ? WHERE id = ?`),
		string(constants.SessionStatusProcessed), len(evals), len(res.Dropped), len(res.Blank), id.String(),
	); err != nil {
		return fmt.Errorf("journal pages: %w", err)
	}
	return tx.Commit()
}

func (r *sessionRepo) MarkMaterialized(ctx context.Context, id uuid.UUID, documents int) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(
		`UPDATE sessions SET status = ?, documents = ? WHERE id = ?`),
		string(constants.SessionStatusMaterialized), documents, id.String(),
	)
	if err != nil {
		return fmt.Errorf("journal materialized: %w", err)
	}
	return nil
}

func (r *sessionRepo) FinishSuccess(ctx context.Context, id uuid.UUID, out SessionOutcome) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(
		`UPDATE sessions SET status = ?, documents = ?, archive_path = ?, finished_at = ? WHERE id = ?`),
		string(constants.SessionStatusArchived), out.Documents, out.ArchivePath, time.Now().UTC(), id.String(),
	)
	if err != nil {
		r.log.Error("session finish(ARCHIVED) failed", "session_id", id, "err", err)
		return fmt.Errorf("journal finish: %w", err)
	}
	r.log.Debug("session finished (ARCHIVED)", "session_id", id, "documents", out.Documents)
	return nil
}

func (r *sessionRepo) FinishFailure(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(
		`UPDATE sessions SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		string(constants.SessionStatusFailed), message, time.Now().UTC(), id.String(),
	)
	if err != nil {
		r.log.Error("session finish(FAILED) failed", "session_id", id, "err", err)
		return fmt.Errorf("journal finish: %w", err)
	}
	r.log.Warn("session finished (FAILED)", "session_id", id, "error", message)
	return nil
}

// List returns sessions started in [from, to), oldest first. Zero bounds are open.
func (r *sessionRepo) List(ctx context.Context, from, to time.Time) ([]entity.Session, error) {
	q := `SELECT id, source, output_dir, status, pages, documents, dropped, blank, archive_path, error_message, started_at, finished_at
		  FROM sessions WHERE 1 = 1`
	var args []any
	if !from.IsZero() {
		q += ` AND started_at >= ?`
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		q += ` AND started_at < ?`
		args = append(args, to.UTC())
	}
	q += ` ORDER BY started_at, id`

	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []entity.Session
	for rows.Next() {
		var (
			s           entity.Session
			id          string
			archivePath sql.NullString
			errMsg      sql.NullString
			finished    sql.NullTime
		)
		if err := rows.Scan(&id, &s.Source, &s.OutputDir, &s.Status, &s.Pages, &s.Documents, &s.Dropped, &s.Blank,
			&archivePath, &errMsg, &s.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if s.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		s.ArchivePath = stringPtr(archivePath)
		s.ErrorMessage = stringPtr(errMsg)
		if finished.Valid {
			t := finished.Time
			s.FinishedAt = &t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionRepo) Pages(ctx context.Context, id uuid.UUID) ([]entity.SessionPage, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(
		`SELECT page, kind, label, identifier, confidence, attempt, outcome, group_id, reason
		 FROM session_pages WHERE session_id = ? ORDER BY page`), id.String())
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var out []entity.SessionPage
	for rows.Next() {
		var (
			p                                  entity.SessionPage
			identifier, attempt, group, reason sql.NullString
		)
		if err := rows.Scan(&p.Page, &p.Kind, &p.Label, &identifier, &p.Confidence, &attempt, &p.Outcome, &group, &reason); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.SessionID = id
		p.Identifier = stringPtr(identifier)
		p.Attempt = stringPtr(attempt)
		p.GroupID = stringPtr(group)
		p.Reason = stringPtr(reason)
		out = append(out, p)
	}
	return out, rows.Err()
}

// PageRecords joins evaluations with the fold result into journal rows.
func PageRecords(id uuid.UUID, evals []evaluate.Evaluation, res aggregate.Result) []entity.SessionPage {
	groupOf := map[int]string{}
	for _, g := range res.Groups {
		for _, p := range g.Pages {
			groupOf[p] = g.ID
		}
	}
	reasonOf := map[int]string{}
	for _, d := range res.Dropped {
		reasonOf[d.Page] = d.Reason
	}

	out := make([]entity.SessionPage, 0, len(evals))
	for _, ev := range evals {
		p := entity.SessionPage{
			SessionID:  id,
			Page:       ev.Page,
			Kind:       ev.Kind.String(),
			Label:      string(ev.Label()),
			Confidence: ev.Confidence,
		}
		if v, ok := ev.ID(); ok {
			p.Identifier = &v
		}
		if ev.Attempt != "" {
			a := ev.Attempt
			p.Attempt = &a
		}
		switch {
		case ev.Blank():
			p.Outcome = entity.OutcomeBlank
		case groupOf[ev.Page] != "":
			g := groupOf[ev.Page]
			p.Outcome = entity.OutcomeAssigned
			p.GroupID = &g
		default:
			reason := reasonOf[ev.Page]
			p.Outcome = entity.OutcomeDropped
			p.Reason = &reason
		}
		out = append(out, p)
	}
	return out
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

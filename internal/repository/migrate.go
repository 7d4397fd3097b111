package repository

import (
	"context"
	"fmt"
)

func schema(d Dialect) []string {
	idType, tsType := "TEXT", "TIMESTAMP"
	if d == Postgres {
		idType, tsType = "UUID", "TIMESTAMPTZ"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id ` + idType + ` PRIMARY KEY,
			source TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			status TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			documents INTEGER NOT NULL DEFAULT 0,
			dropped INTEGER NOT NULL DEFAULT 0,
			blank INTEGER NOT NULL DEFAULT 0,
			archive_path TEXT,
			error_message TEXT,
			started_at ` + tsType + ` NOT NULL,
			finished_at ` + tsType + `
		)`,
		`CREATE INDEX IF NOT EXISTS sessions_started_at_idx ON sessions (started_at)`,
		`CREATE TABLE IF NOT EXISTS session_pages (
			session_id ` + idType + ` NOT NULL REFERENCES sessions (id) ON DELETE CASCADE,
			page INTEGER NOT NULL,
			kind TEXT NOT NULL,
			label TEXT NOT NULL,
			identifier TEXT,
			confidence REAL NOT NULL DEFAULT 0,
			attempt TEXT,
			outcome TEXT NOT NULL,
			group_id TEXT,
			reason TEXT,
			PRIMARY KEY (session_id, page)
		)`,
	}
}

// Migrate creates the journal tables if they do not exist.
func Migrate(ctx context.Context, d *DB) error {
	for _, stmt := range schema(d.Dialect) {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

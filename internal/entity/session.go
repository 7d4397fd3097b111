package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a journal row for one processed source file.
type Session struct {
	ID           uuid.UUID  `json:"id"`
	Source       string     `json:"source"`
	OutputDir    string     `json:"output_dir"`
	Status       string     `json:"status"`
	Pages        int        `json:"pages"`
	Documents    int        `json:"documents"`
	Dropped      int        `json:"dropped"`
	Blank        int        `json:"blank"`
	ArchivePath  *string    `json:"archive_path,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// SessionPage records how one page was evaluated and where it ended up.
type SessionPage struct {
	SessionID  uuid.UUID `json:"session_id"`
	Page       int       `json:"page"` // 0-based
	Kind       string    `json:"kind"`
	Label      string    `json:"label"`
	Identifier *string   `json:"identifier,omitempty"`
	Confidence float32   `json:"confidence"`
	Attempt    *string   `json:"attempt,omitempty"`
	Outcome    string    `json:"outcome"` // assigned | dropped | blank
	GroupID    *string   `json:"group_id,omitempty"`
	Reason     *string   `json:"reason,omitempty"`
}

// Page outcomes.
const (
	OutcomeAssigned = "assigned"
	OutcomeDropped  = "dropped"
	OutcomeBlank    = "blank"
)

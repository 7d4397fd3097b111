package constants

// SessionStatus is the canonical status for rows in the sessions journal.
type SessionStatus string

// Stable values (store these exact strings in DB).
const (
	SessionStatusRunning      SessionStatus = "RUNNING"      // rasterizing / evaluating
	SessionStatusProcessed    SessionStatus = "PROCESSED"    // aggregation done
	SessionStatusMaterialized SessionStatus = "MATERIALIZED" // output documents written
	SessionStatusArchived     SessionStatus = "ARCHIVED"     // terminal success
	SessionStatusFailed       SessionStatus = "FAILED"       // terminal failure
)

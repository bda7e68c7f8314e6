package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceStats is the per-source counter snapshot a crawl run accumulates.
type SourceStats struct {
	Listed  int `json:"listed"`
	Changed int `json:"changed"`
	Errors  int `json:"errors"`
}

// CrawlRun is one orchestrator invocation. Written exactly once per run, even
// when the run degraded; OK is false if any source or item failed.
type CrawlRun struct {
	ID         uuid.UUID  `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	OK         bool       `json:"ok"`
	Summary    *string    `json:"summary"`
}

// LogLevel for crawl diagnostics.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// CrawlLog is one append-only diagnostic line tied to a run and a source.
type CrawlLog struct {
	ID        uuid.UUID `json:"id"`
	RunID     uuid.UUID `json:"run_id"`
	Source    string    `json:"source"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

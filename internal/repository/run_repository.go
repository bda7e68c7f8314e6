package repository

import (
	"context"
	"strings"
	"time"

	"notice-feed/internal/database"
	"notice-feed/internal/domain"

	"github.com/google/uuid"
)

// RunRepository is the append-only crawl ledger: one row per run plus a
// diagnostic log trail.
type RunRepository interface {
	InsertRun(ctx context.Context, run domain.CrawlRun) error
	AppendLog(ctx context.Context, runID uuid.UUID, src string, level domain.LogLevel, message string) error
	RecentRuns(ctx context.Context, limit int) ([]domain.CrawlRun, error)
	RecentLogs(ctx context.Context, limit int) ([]domain.CrawlLog, error)
}

const (
	maxRunsLimit = 100
	maxLogsLimit = 200
)

type PostgresRunRepository struct {
	db database.DB
}

func NewPostgresRunRepository(db database.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) InsertRun(ctx context.Context, run domain.CrawlRun) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO crawl_runs (id, started_at, finished_at, ok, summary) VALUES ($1,$2,$3,$4,$5)`,
		run.ID, run.StartedAt, run.FinishedAt, run.OK, run.Summary,
	)
	return err
}

func (r *PostgresRunRepository) AppendLog(ctx context.Context, runID uuid.UUID, src string, level domain.LogLevel, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO crawl_logs (id, run_id, source, level, message, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.New(), runID, src, string(level), message, time.Now().UTC(),
	)
	return err
}

func (r *PostgresRunRepository) RecentRuns(ctx context.Context, limit int) ([]domain.CrawlRun, error) {
	limit = clampLimit(limit, 20, maxRunsLimit)

	rows, err := r.db.Query(ctx,
		`SELECT id, started_at, finished_at, ok, summary FROM crawl_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CrawlRun, 0, limit)
	for rows.Next() {
		var run domain.CrawlRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.OK, &run.Summary); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *PostgresRunRepository) RecentLogs(ctx context.Context, limit int) ([]domain.CrawlLog, error) {
	limit = clampLimit(limit, 50, maxLogsLimit)

	rows, err := r.db.Query(ctx,
		`SELECT id, run_id, source, level, message, created_at FROM crawl_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CrawlLog, 0, limit)
	for rows.Next() {
		var l domain.CrawlLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Source, &l.Level, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

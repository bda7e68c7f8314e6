// Package crawler runs the collection pipeline: list each source, fetch a
// bounded number of detail pages, upsert the results, and record the run in
// the ledger. Runs are sequential and paced; the sites are small university
// boards and the pipeline is deliberately gentle with them.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"notice-feed/internal/domain"
	"notice-feed/internal/repository"
	"notice-feed/internal/source"

	"github.com/google/uuid"
)

const (
	runLockKey = "crawl:runlock"
	runLockTTL = 10 * time.Minute

	defaultDetailLimit = 20

	itemDelay   = 300 * time.Millisecond
	sourceDelay = 800 * time.Millisecond
)

// ErrRunInProgress means another run holds the lock. Callers surface it as a
// conflict, not a failure.
var ErrRunInProgress = errors.New("crawl run already in progress")

// Locker serializes runs across processes. The Redis wrapper satisfies it.
type Locker interface {
	SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Result summarizes one finished run.
type Result struct {
	RunID uuid.UUID                     `json:"run_id"`
	OK    bool                          `json:"ok"`
	Stats map[string]domain.SourceStats `json:"stats"`
}

type Crawler struct {
	sources []source.Source
	posts   repository.PostRepository
	runs    repository.RunRepository
	client  *source.Client
	locker  Locker
	logger  *log.Logger

	detailLimit int
	itemDelay   time.Duration
	sourceDelay time.Duration
}

func New(sources []source.Source, posts repository.PostRepository, runs repository.RunRepository, client *source.Client, locker Locker, logger *log.Logger, detailLimit int) *Crawler {
	if logger == nil {
		logger = log.Default()
	}
	if detailLimit <= 0 {
		detailLimit = defaultDetailLimit
	}
	return &Crawler{
		sources:     sources,
		posts:       posts,
		runs:        runs,
		client:      client,
		locker:      locker,
		logger:      logger,
		detailLimit: detailLimit,
		itemDelay:   itemDelay,
		sourceDelay: sourceDelay,
	}
}

// Run executes one full crawl. A failing source or item never aborts the
// run; it is counted, logged, and the run moves on. The run record is
// written even when the context is cancelled mid-run.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	runID := uuid.New()

	acquired, err := c.locker.SetIfNotExists(ctx, runLockKey, runID.String(), runLockTTL)
	if err != nil {
		return Result{}, err
	}
	if !acquired {
		return Result{}, ErrRunInProgress
	}
	defer func() {
		if err := c.locker.Delete(context.WithoutCancel(ctx), runLockKey); err != nil {
			c.logger.Printf("[Crawler] run=%s release lock: %v", runID, err)
		}
	}()

	startedAt := time.Now().UTC()
	stats := make(map[string]domain.SourceStats, len(c.sources))
	ok := true

	defer func() {
		finished := time.Now().UTC()
		run := domain.CrawlRun{
			ID:         runID,
			StartedAt:  startedAt,
			FinishedAt: &finished,
			OK:         ok,
			Summary:    summarize(stats),
		}
		// The ledger write must survive caller cancellation.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := c.runs.InsertRun(recCtx, run); err != nil {
			c.logger.Printf("[Crawler] run=%s record run: %v", runID, err)
		}
	}()

	c.logger.Printf("[Crawler] run=%s started sources=%d", runID, len(c.sources))

	for i, src := range c.sources {
		if i > 0 {
			if err := sleepCtx(ctx, c.sourceDelay); err != nil {
				ok = false
				return Result{RunID: runID, OK: ok, Stats: stats}, err
			}
		}
		st := c.crawlSource(ctx, runID, src)
		stats[string(src.ID())] = st
		if st.Errors > 0 {
			ok = false
		}
		if ctx.Err() != nil {
			ok = false
			return Result{RunID: runID, OK: ok, Stats: stats}, ctx.Err()
		}
	}

	c.logger.Printf("[Crawler] run=%s finished ok=%t", runID, ok)
	return Result{RunID: runID, OK: ok, Stats: stats}, nil
}

func (c *Crawler) crawlSource(ctx context.Context, runID uuid.UUID, src source.Source) domain.SourceStats {
	var st domain.SourceStats
	name := string(src.ID())

	items, err := src.List(ctx, c.client)
	if err != nil {
		st.Errors++
		c.appendLog(ctx, runID, name, domain.LogError, fmt.Sprintf("list failed: %v", err))
		return st
	}
	st.Listed = len(items)

	limit := len(items)
	if limit > c.detailLimit {
		limit = c.detailLimit
	}

	for i, item := range items[:limit] {
		if i > 0 {
			if err := sleepCtx(ctx, c.itemDelay); err != nil {
				st.Errors++
				return st
			}
		}

		det, err := src.Detail(ctx, c.client, item)
		if err != nil {
			st.Errors++
			c.appendLog(ctx, runID, name, domain.LogWarn, fmt.Sprintf("detail %s failed: %v", item.RemoteID, err))
			continue
		}

		changed, id, err := c.posts.Upsert(ctx, src.ID(), det)
		if err != nil {
			st.Errors++
			c.appendLog(ctx, runID, name, domain.LogError, fmt.Sprintf("upsert %s failed: %v", id, err))
			continue
		}
		if changed {
			st.Changed++
		}
	}

	c.appendLog(ctx, runID, name, domain.LogInfo,
		fmt.Sprintf("listed=%d changed=%d errors=%d", st.Listed, st.Changed, st.Errors))
	return st
}

// appendLog is best-effort; a failing diagnostic write never fails the run.
func (c *Crawler) appendLog(ctx context.Context, runID uuid.UUID, src string, level domain.LogLevel, msg string) {
	if err := c.runs.AppendLog(context.WithoutCancel(ctx), runID, src, level, msg); err != nil {
		c.logger.Printf("[Crawler] run=%s log write: %v", runID, err)
	}
}

func summarize(stats map[string]domain.SourceStats) *string {
	b, err := json.Marshal(stats)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	return nil
}

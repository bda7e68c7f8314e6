// Package repository implements the Postgres persistence for posts and the
// crawl ledger.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"notice-feed/internal/database"
	"notice-feed/internal/domain"
	"notice-feed/internal/source"

	"github.com/jackc/pgx/v5"
)

// PageCursor marks where the previous page stopped. The feed orders dated
// posts first by posted date, then the undated tail by update time; the two
// regions page on different columns, so the cursor records which region it
// was taken in.
type PageCursor struct {
	Undated bool
	At      time.Time
}

// ListFilter narrows and pages the post listing.
type ListFilter struct {
	Query    string
	Category domain.Category
	Source   domain.Source
	Cursor   *PageCursor
	Limit    int
}

type PostRepository interface {
	// Upsert persists one detailed item and reports whether anything
	// actually changed. Idempotent: a second call with identical input is a
	// no-op reporting changed=false.
	Upsert(ctx context.Context, src domain.Source, item source.DetailedItem) (changed bool, id string, err error)
	List(ctx context.Context, f ListFilter) (items []domain.Post, nextCursor *PageCursor, err error)
	GetByID(ctx context.Context, id string) (domain.Post, error)
}

type PostgresPostRepository struct {
	db database.DB
}

func NewPostgresPostRepository(db database.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) Upsert(ctx context.Context, src domain.Source, item source.DetailedItem) (bool, string, error) {
	rec := domain.BuildRecord(src, item.RemoteID, item.Title, item.PostedAt, item.URL, item.Content, item.Excerpt, time.Now().UTC())

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, rec.ID, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var existing string
	err = tx.QueryRow(ctx, `SELECT hash FROM posts WHERE id = $1`, rec.ID).Scan(&existing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return false, rec.ID, err
	}
	if err == nil && existing == rec.Hash {
		return false, rec.ID, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO posts (id, source, remote_id, title, posted_at, url, excerpt, content, category, hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			posted_at = EXCLUDED.posted_at,
			url = EXCLUDED.url,
			excerpt = EXCLUDED.excerpt,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			hash = EXCLUDED.hash,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.Source, rec.RemoteID, rec.Title, rec.PostedAt, rec.URL,
		rec.Excerpt, rec.Content, rec.Category, rec.Hash, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return false, rec.ID, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, rec.ID, err
	}
	return true, rec.ID, nil
}

const postColumns = `id, source, remote_id, title, posted_at, url, excerpt, content, category, updated_at`

func (r *PostgresPostRepository) List(ctx context.Context, f ListFilter) ([]domain.Post, *PageCursor, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, fmt.Sprintf("title ILIKE %s", arg("%"+escapeLike(q)+"%")))
	}
	if f.Category != "" {
		where = append(where, fmt.Sprintf("category = %s", arg(string(f.Category))))
	}
	if f.Source != "" {
		where = append(where, fmt.Sprintf("source = %s", arg(string(f.Source))))
	}
	if f.Cursor != nil {
		// A cursor taken among dated posts admits everything older plus
		// the whole undated tail (it sorts after all dated posts); a
		// cursor taken in the tail pages on updated_at only.
		c := arg(f.Cursor.At.UTC())
		if f.Cursor.Undated {
			where = append(where, fmt.Sprintf("(posted_at IS NULL AND updated_at < %s)", c))
		} else {
			where = append(where, fmt.Sprintf("(posted_at < %s OR posted_at IS NULL)", c))
		}
	}

	sql := "SELECT " + postColumns + " FROM posts"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += fmt.Sprintf(" ORDER BY posted_at DESC NULLS LAST, updated_at DESC LIMIT %d", limit+1)

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	out := make([]domain.Post, 0, limit)
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.Source, &p.RemoteID, &p.Title, &p.PostedAt, &p.URL, &p.Excerpt, &p.Content, &p.Category, &p.UpdatedAt); err != nil {
			return nil, nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *PageCursor
	if len(out) > limit {
		out = out[:limit]
		last := out[len(out)-1]
		if last.PostedAt != nil {
			next = &PageCursor{At: *last.PostedAt}
		} else {
			next = &PageCursor{Undated: true, At: last.UpdatedAt}
		}
	}
	return out, next, nil
}

func (r *PostgresPostRepository) GetByID(ctx context.Context, id string) (domain.Post, error) {
	var p domain.Post
	err := r.db.QueryRow(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id).
		Scan(&p.ID, &p.Source, &p.RemoteID, &p.Title, &p.PostedAt, &p.URL, &p.Excerpt, &p.Content, &p.Category, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrPostNotFound
	}
	if err != nil {
		return domain.Post{}, err
	}
	return p, nil
}

// escapeLike neutralizes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

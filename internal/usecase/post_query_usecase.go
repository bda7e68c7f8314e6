// Package usecase holds the read-side application logic between the HTTP
// handlers and the repositories.
package usecase

import (
	"context"
	"fmt"
	"time"

	"notice-feed/internal/domain"
	"notice-feed/internal/infrastructure/cache"
	"notice-feed/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 50

	listCacheTTL = 60 * time.Second
)

// ListPostsParams carries the raw query parameters. Cursor is the opaque
// token handed out by a previous page.
type ListPostsParams struct {
	Query    string
	Category string
	Source   string
	Cursor   string
	Limit    int
}

type ListPostsResult struct {
	Items      []domain.Post `json:"items"`
	NextCursor *string       `json:"nextCursor"`
}

type PostQueryUsecase struct {
	posts repository.PostRepository
	cache *cache.Redis
}

func NewPostQueryUsecase(posts repository.PostRepository, c *cache.Redis) *PostQueryUsecase {
	return &PostQueryUsecase{posts: posts, cache: c}
}

// ListPosts pages the feed. Unknown category or source values match nothing
// rather than erroring; the filter vocabulary is closed and small, and a bad
// value is just an empty feed. A malformed cursor is ignored and paging
// restarts from the top.
func (u *PostQueryUsecase) ListPosts(ctx context.Context, p ListPostsParams) (ListPostsResult, error) {
	f := repository.ListFilter{
		Query: p.Query,
		Limit: clampLimit(p.Limit),
	}
	if c := domain.Category(p.Category); p.Category != "" && c.Valid() {
		f.Category = c
	} else if p.Category != "" {
		return ListPostsResult{Items: []domain.Post{}}, nil
	}
	if s := domain.Source(p.Source); p.Source != "" && s.Valid() {
		f.Source = s
	} else if p.Source != "" {
		return ListPostsResult{Items: []domain.Post{}}, nil
	}
	if p.Cursor != "" {
		f.Cursor = decodeCursor(p.Cursor)
	}

	key := listCacheKey(f)
	var cached ListPostsResult
	if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	items, next, err := u.posts.List(ctx, f)
	if err != nil {
		return ListPostsResult{}, err
	}
	if items == nil {
		items = []domain.Post{}
	}

	res := ListPostsResult{Items: items}
	if next != nil {
		tok := encodeCursor(*next)
		res.NextCursor = &tok
	}

	_ = u.cache.SetJSON(ctx, key, res, listCacheTTL)
	return res, nil
}

func (u *PostQueryUsecase) GetPost(ctx context.Context, id string) (domain.Post, error) {
	return u.posts.GetByID(ctx, id)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func listCacheKey(f repository.ListFilter) string {
	cursor := ""
	if f.Cursor != nil {
		cursor = encodeCursor(*f.Cursor)
	}
	return fmt.Sprintf("posts:list:q=%s|c=%s|s=%s|cur=%s|l=%d",
		f.Query, f.Category, f.Source, cursor, f.Limit)
}

// The cursor token is opaque to clients: a region marker plus the sort key
// where the previous page stopped. "d" pages the dated region, "u" the
// undated tail.
func encodeCursor(c repository.PageCursor) string {
	prefix := "d:"
	if c.Undated {
		prefix = "u:"
	}
	return prefix + c.At.UTC().Format(time.RFC3339Nano)
}

func decodeCursor(tok string) *repository.PageCursor {
	if len(tok) < 3 || tok[1] != ':' {
		return nil
	}
	var undated bool
	switch tok[0] {
	case 'd':
	case 'u':
		undated = true
	default:
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, tok[2:])
	if err != nil {
		return nil
	}
	return &repository.PageCursor{Undated: undated, At: t}
}

package usecase

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"notice-feed/internal/domain"
	"notice-feed/internal/repository"
	"notice-feed/internal/source"
)

// memPostRepo mirrors the store's paging semantics in memory: newest first by
// posted date, undated posts last by update time, cursor excludes everything
// at or after the previous page's last sort key.
type memPostRepo struct {
	posts []domain.Post
}

func sortKey(p domain.Post) time.Time {
	if p.PostedAt != nil {
		return *p.PostedAt
	}
	return p.UpdatedAt
}

func (m *memPostRepo) Upsert(ctx context.Context, src domain.Source, item source.DetailedItem) (bool, string, error) {
	panic("not used")
}

func (m *memPostRepo) List(ctx context.Context, f repository.ListFilter) ([]domain.Post, *repository.PageCursor, error) {
	dated := make([]domain.Post, 0, len(m.posts))
	undated := make([]domain.Post, 0)
	for _, p := range m.posts {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Source != "" && p.Source != f.Source {
			continue
		}
		if c := f.Cursor; c != nil {
			if c.Undated {
				if p.PostedAt != nil || !p.UpdatedAt.Before(c.At) {
					continue
				}
			} else if p.PostedAt != nil && !p.PostedAt.Before(c.At) {
				continue
			}
		}
		if p.PostedAt != nil {
			dated = append(dated, p)
		} else {
			undated = append(undated, p)
		}
	}
	sort.Slice(dated, func(i, j int) bool { return dated[i].PostedAt.After(*dated[j].PostedAt) })
	sort.Slice(undated, func(i, j int) bool { return undated[i].UpdatedAt.After(undated[j].UpdatedAt) })
	all := append(dated, undated...)

	if len(all) <= f.Limit {
		return all, nil, nil
	}
	page := all[:f.Limit]
	last := page[len(page)-1]
	next := &repository.PageCursor{Undated: last.PostedAt == nil, At: sortKey(last)}
	return page, next, nil
}

func (m *memPostRepo) GetByID(ctx context.Context, id string) (domain.Post, error) {
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Post{}, domain.ErrPostNotFound
}

func seedPosts(dated, undated int) []domain.Post {
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]domain.Post, 0, dated+undated)
	for i := 0; i < dated; i++ {
		at := base.AddDate(0, 0, -i)
		posts = append(posts, domain.Post{
			ID:        fmt.Sprintf("aicoss:%d", 2000-i),
			Source:    domain.SourceAicoss,
			Title:     fmt.Sprintf("공지 %d", i),
			Category:  domain.CategoryNotice,
			PostedAt:  &at,
			UpdatedAt: base,
		})
	}
	for i := 0; i < undated; i++ {
		posts = append(posts, domain.Post{
			ID:        fmt.Sprintf("sojoong:%d", 500-i),
			Source:    domain.SourceSojoong,
			Title:     fmt.Sprintf("링크 공지 %d", i),
			Category:  domain.CategoryEtc,
			UpdatedAt: base.Add(-time.Duration(i+1) * time.Hour),
		})
	}
	return posts
}

func TestListPostsCursorRoundTrip(t *testing.T) {
	repo := &memPostRepo{posts: seedPosts(12, 5)}
	u := NewPostQueryUsecase(repo, nil)

	seen := make(map[string]bool)
	cursor := ""
	pages := 0
	for {
		res, err := u.ListPosts(context.Background(), ListPostsParams{Limit: 5, Cursor: cursor})
		if err != nil {
			t.Fatalf("page %d: %v", pages, err)
		}
		for _, p := range res.Items {
			if seen[p.ID] {
				t.Fatalf("page %d repeats %s", pages, p.ID)
			}
			seen[p.ID] = true
		}
		pages++
		if res.NextCursor == nil {
			break
		}
		cursor = *res.NextCursor
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
	}

	if len(seen) != 17 {
		t.Fatalf("walked %d posts, want all 17", len(seen))
	}
	if pages != 4 {
		t.Fatalf("pages = %d, want 4", pages)
	}
}

func TestListPostsLimitClamp(t *testing.T) {
	repo := &memPostRepo{posts: seedPosts(60, 0)}
	u := NewPostQueryUsecase(repo, nil)

	res, err := u.ListPosts(context.Background(), ListPostsParams{Limit: 500})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(res.Items) != maxListLimit {
		t.Fatalf("items = %d, want clamp to %d", len(res.Items), maxListLimit)
	}

	res, err = u.ListPosts(context.Background(), ListPostsParams{})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(res.Items) != defaultListLimit {
		t.Fatalf("items = %d, want default %d", len(res.Items), defaultListLimit)
	}
}

func TestListPostsUnknownFilterIsEmpty(t *testing.T) {
	repo := &memPostRepo{posts: seedPosts(3, 0)}
	u := NewPostQueryUsecase(repo, nil)

	res, err := u.ListPosts(context.Background(), ListPostsParams{Category: "스팸"})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(res.Items) != 0 || res.NextCursor != nil {
		t.Fatalf("got %d items, want empty page for unknown category", len(res.Items))
	}
}

func TestListPostsMalformedCursorRestarts(t *testing.T) {
	repo := &memPostRepo{posts: seedPosts(3, 0)}
	u := NewPostQueryUsecase(repo, nil)

	res, err := u.ListPosts(context.Background(), ListPostsParams{Cursor: "not-a-time"})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("items = %d, want full feed from the top", len(res.Items))
	}
}

func TestGetPostNotFound(t *testing.T) {
	u := NewPostQueryUsecase(&memPostRepo{}, nil)
	if _, err := u.GetPost(context.Background(), "aicoss:9999"); err != domain.ErrPostNotFound {
		t.Fatalf("err = %v, want ErrPostNotFound", err)
	}
}

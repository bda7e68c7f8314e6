package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"notice-feed/internal/crawler"
	"notice-feed/internal/delivery/http/handler"
	"notice-feed/internal/delivery/http/middleware"
	"notice-feed/internal/domain"
	"notice-feed/internal/repository"
	"notice-feed/internal/source"
	"notice-feed/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type stubPostRepo struct {
	posts []domain.Post
}

func (s *stubPostRepo) Upsert(ctx context.Context, src domain.Source, item source.DetailedItem) (bool, string, error) {
	return false, "", nil
}

func (s *stubPostRepo) List(ctx context.Context, f repository.ListFilter) ([]domain.Post, *repository.PageCursor, error) {
	if f.Limit >= len(s.posts) {
		return s.posts, nil, nil
	}
	page := s.posts[:f.Limit]
	next := &repository.PageCursor{At: page[len(page)-1].UpdatedAt}
	return page, next, nil
}

func (s *stubPostRepo) GetByID(ctx context.Context, id string) (domain.Post, error) {
	for _, p := range s.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Post{}, domain.ErrPostNotFound
}

type stubRunRepo struct {
	mu   sync.Mutex
	runs []domain.CrawlRun
}

func (s *stubRunRepo) InsertRun(ctx context.Context, run domain.CrawlRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

func (s *stubRunRepo) AppendLog(ctx context.Context, runID uuid.UUID, src string, level domain.LogLevel, message string) error {
	return nil
}

func (s *stubRunRepo) RecentRuns(ctx context.Context, limit int) ([]domain.CrawlRun, error) {
	return s.runs, nil
}

func (s *stubRunRepo) RecentLogs(ctx context.Context, limit int) ([]domain.CrawlLog, error) {
	return nil, nil
}

type stubLocker struct{ held bool }

func (s *stubLocker) SetIfNotExists(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if s.held {
		return false, nil
	}
	s.held = true
	return true, nil
}

func (s *stubLocker) Delete(ctx context.Context, key string) error {
	s.held = false
	return nil
}

func seedFeed(n int) []domain.Post {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	posts := make([]domain.Post, 0, n)
	for i := 0; i < n; i++ {
		at := now.AddDate(0, 0, -i)
		posts = append(posts, domain.Post{
			ID:        fmt.Sprintf("aicoss:%d", 1500-i),
			Source:    domain.SourceAicoss,
			RemoteID:  fmt.Sprintf("%d", 1500-i),
			Title:     fmt.Sprintf("공지 %d", i),
			Category:  domain.CategoryNotice,
			PostedAt:  &at,
			URL:       fmt.Sprintf("https://example.test/notice/view/%d", 1500-i),
			UpdatedAt: at,
		})
	}
	return posts
}

func newTestApp(t *testing.T, posts repository.PostRepository, runs repository.RunRepository, locker crawler.Locker, adminToken string) *fiber.App {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	f := fiber.New(fiber.Config{})
	f.Use(middleware.NewErrorMiddleware(logger).Middleware())

	cr := crawler.New(nil, posts, runs, source.NewClient(time.Second, "test", 0), locker, logger, 20)
	uc := usecase.NewPostQueryUsecase(posts, nil)

	reg := &Registry{
		Posts:      handler.NewPostHandler(uc),
		Admin:      handler.NewAdminHandler(cr, runs),
		Health:     handler.NewHealthHandler(),
		AdminGuard: middleware.NewAdminMiddleware(adminToken),
	}
	reg.Register(f)
	return f
}

func TestListPostsEnvelope(t *testing.T) {
	app := newTestApp(t, &stubPostRepo{posts: seedFeed(3)}, &stubRunRepo{}, &stubLocker{}, "")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/posts", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control = %q, want no-store", cc)
	}

	var body struct {
		Items      []domain.Post `json:"items"`
		NextCursor *string       `json:"nextCursor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(body.Items))
	}
	if body.NextCursor != nil {
		t.Fatalf("nextCursor = %v, want null on last page", *body.NextCursor)
	}
}

func TestGetPostNotFoundShape(t *testing.T) {
	app := newTestApp(t, &stubPostRepo{}, &stubRunRepo{}, &stubLocker{}, "")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/posts/aicoss:9999", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "not_found" {
		t.Fatalf("error = %q, want not_found", body["error"])
	}
}

func TestAdminForbiddenWithoutToken(t *testing.T) {
	app := newTestApp(t, &stubPostRepo{}, &stubRunRepo{}, &stubLocker{}, "secret")

	resp, err := app.Test(httptest.NewRequest("POST", "/api/admin/crawl", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "forbidden" {
		t.Fatalf("error = %q, want forbidden", body["error"])
	}
}

func TestAdminCrawlWithToken(t *testing.T) {
	runs := &stubRunRepo{}
	app := newTestApp(t, &stubPostRepo{}, runs, &stubLocker{}, "secret")

	req := httptest.NewRequest("POST", "/api/admin/crawl", nil)
	req.Header.Set("X-Admin-Token", "secret")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		RunID string          `json:"runId"`
		OK    bool            `json:"ok"`
		Stats json.RawMessage `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RunID == "" || !body.OK {
		t.Fatalf("body = %+v, want runId and ok=true", body)
	}
	if len(runs.runs) != 1 {
		t.Fatalf("run records = %d, want 1", len(runs.runs))
	}
}

func TestAdminCrawlConflictWhileLocked(t *testing.T) {
	app := newTestApp(t, &stubPostRepo{}, &stubRunRepo{}, &stubLocker{held: true}, "secret")

	req := httptest.NewRequest("POST", "/api/admin/crawl?token=secret", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "run_in_progress" {
		t.Fatalf("error = %q, want run_in_progress", body["error"])
	}
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp(t, &stubPostRepo{}, &stubRunRepo{}, &stubLocker{}, "")

	req := httptest.NewRequest("OPTIONS", "/api/posts", nil)
	req.Header.Set("Origin", "https://feed.example.test")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if ao := resp.Header.Get("Access-Control-Allow-Origin"); ao == "" {
		t.Fatal("missing Access-Control-Allow-Origin on preflight")
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &stubPostRepo{}, &stubRunRepo{}, &stubLocker{}, "")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/health", nil))
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		OK   bool   `json:"ok"`
		Time string `json:"time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.OK || body.Time == "" {
		t.Fatalf("body = %+v, want ok=true with time", body)
	}
}

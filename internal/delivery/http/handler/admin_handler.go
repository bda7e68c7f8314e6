package handler

import (
	"errors"

	"notice-feed/internal/crawler"
	"notice-feed/internal/delivery/http/middleware"
	"notice-feed/internal/domain"
	"notice-feed/internal/pkg/response"
	"notice-feed/internal/repository"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type crawlResponse struct {
	RunID uuid.UUID                     `json:"runId"`
	OK    bool                          `json:"ok"`
	Stats map[string]domain.SourceStats `json:"stats"`
}

type AdminHandler struct {
	crawler *crawler.Crawler
	runs    repository.RunRepository
}

func NewAdminHandler(cr *crawler.Crawler, runs repository.RunRepository) *AdminHandler {
	return &AdminHandler{crawler: cr, runs: runs}
}

// HandleCrawl runs one crawl synchronously and reports its stats. A run
// already holding the lock is a conflict, not a failure.
func (h *AdminHandler) HandleCrawl(c fiber.Ctx) error {
	res, err := h.crawler.Run(c.Context())
	if errors.Is(err, crawler.ErrRunInProgress) {
		return middleware.NewAppError(fiber.StatusConflict, response.CodeRunInProgress, nil)
	}
	if err != nil {
		return err
	}

	return response.JSON(c, fiber.StatusOK, crawlResponse{RunID: res.RunID, OK: res.OK, Stats: res.Stats})
}

func (h *AdminHandler) HandleRuns(c fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeBadRequest, err)
	}

	runs, err := h.runs.RecentRuns(c.Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []domain.CrawlRun{}
	}
	return response.JSON(c, fiber.StatusOK, runs)
}

func (h *AdminHandler) HandleLogs(c fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeBadRequest, err)
	}

	logs, err := h.runs.RecentLogs(c.Context(), limit)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []domain.CrawlLog{}
	}
	return response.JSON(c, fiber.StatusOK, logs)
}

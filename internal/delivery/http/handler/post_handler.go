package handler

import (
	"errors"
	"strconv"

	"notice-feed/internal/delivery/http/middleware"
	"notice-feed/internal/domain"
	"notice-feed/internal/pkg/response"
	"notice-feed/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type PostHandler struct {
	uc *usecase.PostQueryUsecase
}

func NewPostHandler(uc *usecase.PostQueryUsecase) *PostHandler {
	return &PostHandler{uc: uc}
}

func (h *PostHandler) HandleList(c fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeBadRequest, err)
	}

	res, err := h.uc.ListPosts(c.Context(), usecase.ListPostsParams{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Source:   c.Query("source"),
		Cursor:   c.Query("cursor"),
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	return response.JSON(c, fiber.StatusOK, res)
}

func (h *PostHandler) HandleGet(c fiber.Ctx) error {
	id := c.Params("id")

	post, err := h.uc.GetPost(c.Context(), id)
	if errors.Is(err, domain.ErrPostNotFound) {
		return middleware.NewAppError(fiber.StatusNotFound, response.CodeNotFound, nil)
	}
	if err != nil {
		return err
	}

	return response.JSON(c, fiber.StatusOK, post)
}

func parseQueryInt(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

package handler

import (
	"time"

	"notice-feed/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type healthBody struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) HandleHealth(c fiber.Ctx) error {
	return response.JSON(c, fiber.StatusOK, healthBody{
		OK:   true,
		Time: time.Now().UTC().Format(time.RFC3339),
	})
}

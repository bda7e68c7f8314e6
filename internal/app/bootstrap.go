package app

import (
	"fmt"
	"log"
	"strings"

	"notice-feed/internal/config"
	"notice-feed/internal/delivery/http/handler"
	"notice-feed/internal/delivery/http/middleware"
	"notice-feed/internal/delivery/http/routes"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

func New(c *Container, logger *log.Logger) *App {
	f := fiber.New(fiber.Config{})

	f.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	f.Use(middleware.NewErrorMiddleware(logger).Middleware())

	reg := &routes.Registry{
		Posts:      handler.NewPostHandler(c.PostQuery),
		Admin:      handler.NewAdminHandler(c.Crawler, c.Runs),
		Health:     handler.NewHealthHandler(),
		AdminGuard: middleware.NewAdminMiddleware(c.Config.App.AdminToken),
	}
	reg.Register(f)

	return &App{Fiber: f}
}

func Bootstrap(cfg config.Config, logger *log.Logger) (*App, *Container, func() error, error) {
	container, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	app := New(container, logger)
	return app, container, container.Close, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}

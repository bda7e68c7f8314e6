package routes

import (
	"notice-feed/internal/delivery/http/handler"
	"notice-feed/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

type Registry struct {
	Posts  *handler.PostHandler
	Admin  *handler.AdminHandler
	Health *handler.HealthHandler

	AdminGuard *middleware.AdminMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	api := app.Group("/api", cors.New(), noStore)

	api.Get("/health", r.Health.HandleHealth)
	api.Get("/posts", r.Posts.HandleList)
	api.Get("/posts/:id", r.Posts.HandleGet)

	admin := api.Group("/admin", r.AdminGuard.Middleware())
	admin.Post("/crawl", r.Admin.HandleCrawl)
	admin.Get("/runs", r.Admin.HandleRuns)
	admin.Get("/logs", r.Admin.HandleLogs)
}

// Feed data goes stale within minutes and the listing already has its own
// server-side cache; clients should not hold onto responses.
func noStore(c fiber.Ctx) error {
	c.Set("Cache-Control", "no-store")
	return c.Next()
}

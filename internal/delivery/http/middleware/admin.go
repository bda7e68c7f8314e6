package middleware

import (
	"crypto/subtle"
	"net"

	"notice-feed/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// AdminMiddleware guards the crawl trigger and the ledger endpoints. A
// request passes with the shared token (header or query param) or when it
// comes from the loopback interface. No configured token means token auth is
// off and only loopback gets through.
type AdminMiddleware struct {
	token string
}

func NewAdminMiddleware(token string) *AdminMiddleware {
	return &AdminMiddleware{token: token}
}

func (m *AdminMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if m.tokenMatches(c.Get("X-Admin-Token")) || m.tokenMatches(c.Query("token")) {
			return c.Next()
		}
		if isLoopback(c.IP()) {
			return c.Next()
		}
		return NewAppError(fiber.StatusForbidden, response.CodeForbidden, nil)
	}
}

func (m *AdminMiddleware) tokenMatches(candidate string) bool {
	if m.token == "" || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(m.token), []byte(candidate)) == 1
}

func isLoopback(ip string) bool {
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

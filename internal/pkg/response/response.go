// Package response holds the wire-level JSON helpers. The API speaks bare
// JSON: payloads as-is on success, `{"error":"<code>"}` on failure.
package response

import "github.com/gofiber/fiber/v3"

// Error codes the API hands out. Machine-readable, stable.
const (
	CodeBadRequest    = "bad_request"
	CodeForbidden     = "forbidden"
	CodeNotFound      = "not_found"
	CodeRunInProgress = "run_in_progress"
	CodeInternal      = "internal_error"
)

type errorBody struct {
	Error string `json:"error"`
}

func JSON(c fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(payload)
}

func Fail(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(errorBody{Error: code})
}

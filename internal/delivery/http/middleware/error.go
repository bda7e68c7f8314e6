package middleware

import (
	"errors"
	"log"

	"notice-feed/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// AppError is the typed error handlers return instead of writing responses
// themselves. Code is the wire error code, Cause stays server-side.
type AppError struct {
	StatusCode int
	Code       string
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Code + ": " + e.Cause.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, code string, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Cause: cause}
}

type ErrorMiddleware struct {
	logger *log.Logger
}

func NewErrorMiddleware(logger *log.Logger) *ErrorMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	return &ErrorMiddleware{logger: logger}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Printf("[HTTP] panic recovered: %v", r)
				err = response.Fail(c, fiber.StatusInternalServerError, response.CodeInternal)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, code := normalizeError(err)
		if status >= 500 {
			m.logger.Printf("[HTTP] %s %s: %v", c.Method(), c.Path(), err)
		}
		return response.Fail(c, status, code)
	}
}

func normalizeError(err error) (int, string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.CodeInternal
		}
		code := appErr.Code
		if code == "" {
			code = defaultCodeForStatus(status)
		}
		return status, code
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.CodeInternal
		}
		return status, defaultCodeForStatus(status)
	}

	return fiber.StatusInternalServerError, response.CodeInternal
}

func defaultCodeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return response.CodeBadRequest
	case fiber.StatusForbidden:
		return response.CodeForbidden
	case fiber.StatusNotFound:
		return response.CodeNotFound
	case fiber.StatusConflict:
		return response.CodeRunInProgress
	default:
		return response.CodeInternal
	}
}

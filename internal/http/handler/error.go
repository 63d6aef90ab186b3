package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"noteally/internal/http/middleware"
	"noteally/internal/model"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// respondError writes err using the status and code of its error kind.
func respondError(c *fiber.Ctx, err error) error {
	status, code := middleware.Classify(err)
	return writeError(c, status, code, safeMessage(err, status))
}

// safeMessage returns the text shown to the client. Only client errors carry
// their own message; store and internal failures are reported generically.
func safeMessage(err error, status int) string {
	var fe *fiber.Error
	switch {
	case errors.Is(err, model.ErrStore):
		return "storage backend unavailable"
	case status >= fiber.StatusInternalServerError:
		return "internal server error"
	case errors.As(err, &fe):
		return fe.Message
	default:
		return err.Error()
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, code := middleware.Classify(err)

		switch status {
		case fiber.StatusNotFound:
			if !errors.Is(err, model.ErrNotFound) {
				return writeError(c, status, code, "resource not found")
			}
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, code, "method not allowed")
		}
		return writeError(c, status, code, safeMessage(err, status))
	}
}

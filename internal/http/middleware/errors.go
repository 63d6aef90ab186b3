package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"noteally/internal/model"
)

// StatusFor maps an error returned by a handler or service to the HTTP status
// and machine-readable code sent to the client.
func StatusFor(err error) int {
	status, _ := Classify(err)
	return status
}

// Classify returns the HTTP status and error code for err.
func Classify(err error) (int, string) {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK, ""
	case errors.Is(err, model.ErrAuth):
		return fiber.StatusUnauthorized, "AUTH_REQUIRED"
	case errors.Is(err, model.ErrValidation):
		return fiber.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, model.ErrPermission):
		return fiber.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, model.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, model.ErrStore):
		return fiber.StatusBadGateway, "STORE_ERROR"
	case errors.As(err, &fe):
		switch fe.Code {
		case fiber.StatusBadRequest:
			return fe.Code, "BAD_REQUEST"
		case fiber.StatusNotFound:
			return fe.Code, "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			return fe.Code, "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			return fe.Code, "FILE_TOO_LARGE"
		}
		if fe.Code < fiber.StatusInternalServerError {
			return fe.Code, "BAD_REQUEST"
		}
		return fe.Code, "INTERNAL_ERROR"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

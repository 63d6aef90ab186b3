package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"noteally/internal/logging"
)

// Logger is a middleware that logs each HTTP request in JSON format.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - user_id when a session is attached
func Logger(lg *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		rid := RequestIDFrom(c)
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		level := "info"
		switch {
		case status >= fiber.StatusInternalServerError:
			level = "error"
		case status >= fiber.StatusBadRequest:
			level = "warn"
		}

		entry := map[string]any{
			"request_id": rid,
			"method":     c.Method(),
			// Use only the path segment (no query string); SSE tokens travel in the query.
			"path":    c.Path(),
			"status":  status,
			"latency": float64(time.Since(start).Microseconds()) / 1000,
			"level":   level,
		}
		if sess := SessionFrom(c); sess != nil {
			entry["user_id"] = sess.UserID
		}
		lg.Log(entry)

		return err
	}
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}

package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"noteally/internal/auth"
	"noteally/internal/model"
)

// SessionLocalKey is the key the verified *auth.Session is stored under in Fiber's context locals.
const SessionLocalKey = "session"

// AccessTokenQuery carries the bearer token for clients that cannot set
// headers, such as a browser EventSource.
const AccessTokenQuery = "access_token"

// Verifier checks a bearer token and returns the session it belongs to.
type Verifier interface {
	Verify(ctx context.Context, token string) (*auth.Session, error)
}

// OptionalSession attaches the caller's session when a token is supplied.
// Anonymous requests pass through; a token that fails verification does not.
func OptionalSession(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}
		sess, err := v.Verify(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(SessionLocalKey, sess)
		return c.Next()
	}
}

// RequireSession rejects requests without a valid token.
func RequireSession(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fmt.Errorf("%w: missing bearer token", model.ErrAuth)
		}
		sess, err := v.Verify(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(SessionLocalKey, sess)
		return c.Next()
	}
}

// SessionFrom returns the session stored by OptionalSession or RequireSession, or nil.
func SessionFrom(c *fiber.Ctx) *auth.Session {
	sess, _ := c.Locals(SessionLocalKey).(*auth.Session)
	return sess
}

func bearerToken(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Query(AccessTokenQuery)
}

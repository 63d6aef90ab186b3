package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"noteally/internal/auth"
	"noteally/internal/http/middleware"
	"noteally/internal/service"
)

// SignOuter ends a session.
type SignOuter interface {
	SignOut(ctx context.Context, s *auth.Session) error
}

// Dashboard godoc
// @Summary Your notes and totals
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DashboardResult
// @Failure 401 {object} errorPayload
// @Router /dashboard [get]
func Dashboard(svc service.NoteService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Dashboard(c.UserContext(), middleware.SessionFrom(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the bearer token and closes any dashboard stream opened with it.
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} errorPayload
// @Router /auth/signout [post]
func SignOut(sessions SignOuter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := sessions.SignOut(c.UserContext(), middleware.SessionFrom(c)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

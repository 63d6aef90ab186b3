package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"noteally/internal/http/middleware"
	"noteally/internal/service"
)

// Sessions is what the routes need from the session provider.
type Sessions interface {
	middleware.Verifier
	SignOuter
	SessionEnder
}

// RouteOptions holds route settings that are not collaborators.
type RouteOptions struct {
	// KeepAlive is the interval between SSE keep-alive comments. Zero disables them.
	KeepAlive time.Duration
	// Gatherer backs GET /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.NoteService, sessions Sessions, opts RouteOptions) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if opts.Gatherer != nil {
		app.Get("/metrics", Metrics(opts.Gatherer))
	}

	optional := middleware.OptionalSession(sessions)
	required := middleware.RequireSession(sessions)

	// /notes/stream must be registered before /notes/:id.
	app.Get("/notes", optional, ListNotes(svc))
	app.Get("/notes/stream", optional, StreamNotes(svc, opts.KeepAlive))
	app.Get("/notes/:id", optional, GetNote(svc))
	app.Post("/notes", required, UploadNote(svc))
	app.Post("/notes/:id/like", optional, ToggleLike(svc))
	app.Post("/notes/:id/view", RecordView(svc))
	app.Delete("/notes/:id", required, DeleteNote(svc))

	app.Get("/dashboard", required, Dashboard(svc))
	app.Get("/dashboard/stream", required, StreamDashboard(svc, sessions, opts.KeepAlive))

	app.Post("/auth/signout", required, SignOut(sessions))

	app.Get("/files/*", DownloadFile(svc))
}

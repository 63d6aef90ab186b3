package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"noteally/docs"
	"noteally/internal/auth"
	"noteally/internal/database"
	"noteally/internal/database/migration"
	"noteally/internal/feed"
	handlers "noteally/internal/http/handler"
	"noteally/internal/http/middleware"
	"noteally/internal/metrics"
	tracing "noteally/internal/otel"
	"noteally/internal/repository/postgres"
	"noteally/internal/service"
	"noteally/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve connects to PostgreSQL and MinIO, applies the schema if it is
missing, and serves the API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, lg := loadConfig()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, lg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			lg.Error("tracing", "tracing_shutdown_failed", err, nil)
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, lg, cfg.Database.Host); err != nil {
		return err
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	sessions, closeSessions, err := newSessionManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, cfg.Auth.RevocationDir)
	if err != nil {
		return err
	}
	defer closeSessions()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	hub := feed.NewHub()
	if cfg.Feed.ListenEnabled {
		dsn, err := database.BuildPostgresDSN(cfg.Database)
		if err != nil {
			return err
		}
		go feed.NewListener(dsn, hub, lg, cfg.Feed.ReconnectDelay).Run(ctx)
	}

	// Initialize repositories and services
	noteRepo := postgres.NewNotePostgres(db)
	noteSvc := service.NewNoteService(objStore, noteRepo, hub, service.NoteServiceConfig{
		FileBaseURL:      cfg.Upload.PublicBaseURL,
		PresignDownloads: cfg.Upload.PresignDownloads,
		PresignExpiry:    cfg.Upload.PresignExpiry,
		Metrics:          appMetrics,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		BodyLimit:             cfg.Upload.MaxSizeMB * 1024 * 1024,
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger(lg))
	app.Use(promMiddleware.Handler("/notes/stream", "/dashboard/stream"))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, noteSvc, sessions, handlers.RouteOptions{
		KeepAlive: cfg.Feed.KeepAlive,
		Gatherer:  reg,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			lg.Error("server", "shutdown_failed", err, nil)
		}
	}()

	addr := ":" + cfg.Port
	lg.Info("server", "server_listening", map[string]any{"addr": addr, "public_base_url": cfg.Upload.PublicBaseURL})

	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	lg.Info("server", "server_stopped", nil)
	return nil
}

// newSessionManager opens the revocation list and builds the token manager on it.
func newSessionManager(secret, issuer string, ttl time.Duration, revocationDir string) (*auth.Manager, func(), error) {
	revoked, err := auth.OpenBadgerRevocations(revocationDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open revocation list: %w", err)
	}
	mgr, err := auth.NewManager(secret, issuer, ttl, revoked)
	if err != nil {
		_ = revoked.Close()
		return nil, nil, err
	}
	return mgr, func() { _ = revoked.Close() }, nil
}

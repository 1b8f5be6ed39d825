// Package main is the entrypoint for the Aegis API server.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/aegisguard/aegis/internal/alert"
	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/cache"
	"github.com/aegisguard/aegis/internal/config"
	"github.com/aegisguard/aegis/internal/database"
	"github.com/aegisguard/aegis/internal/handler"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/middleware"
	"github.com/aegisguard/aegis/internal/repository"
	"github.com/aegisguard/aegis/internal/server"
	"github.com/aegisguard/aegis/internal/service"
	"github.com/aegisguard/aegis/internal/token"
	"github.com/aegisguard/aegis/internal/webhook"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Apply pending schema migrations before serving traffic.
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Error(
			"failed to run migrations",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("connected to database")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Audit events go to the structured log and to an in-memory ring
	// of recent events.
	auditRing := audit.NewRingSink(cfg.AuditRingCapacity)
	auditSink := audit.MultiSink{audit.NewSlogSink(logger), auditRing}

	recorder := metrics.NewPrometheus()
	tokens := token.New(cfg.CSRFSecret)

	// Webhook deliveries go through database/sql rather than the pgx
	// pool; the repository leans on lib/pq array support.
	webhookDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to open webhook database handle",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	defer webhookDB.Close()
	webhookRepo := webhook.NewRepository(webhookDB)

	subscriptionService := service.NewSubscriptionService(repo, auditSink, recorder)
	protectionService := service.NewProtectionService(repo, auditSink, recorder)
	threatService := service.NewThreatService(repo, auditSink, recorder)
	if cfg.AlertsEnabled {
		threatService = threatService.WithAlerts(alert.NewPublisher(cacheClient.Client(), logger, recorder))
	}
	scanService := service.NewScanService(threatService, auditSink, recorder)
	webhookService := service.NewWebhookService(webhookRepo, auditSink, recorder)

	healthHandler := handler.NewHealthHandler(repo, cacheClient)
	csrfHandler := handler.NewCSRFHandler(tokens, logger, recorder)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService, logger)
	protectionHandler := handler.NewProtectionHandler(protectionService, logger)
	threatHandler := handler.NewThreatHandler(threatService, logger)
	scanHandler := handler.NewScanHandler(scanService, logger)
	webhookHandler := handler.NewWebhookHandler(webhookService, logger)

	r := setupRouter(routerDeps{
		health:       healthHandler,
		csrf:         csrfHandler,
		subscription: subscriptionHandler,
		protection:   protectionHandler,
		threat:       threatHandler,
		scan:         scanHandler,
		webhook:      webhookHandler,
		cache:        cacheClient,
		tokens:       tokens,
		auditSink:    auditSink,
		recorder:     recorder,
		cfg:          cfg,
		logger:       logger,
	})

	srv := server.New(r, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Background pipeline: threat events flow from the Redis stream
	// into webhook deliveries, then out over HTTP.
	if cfg.AlertsEnabled {
		webhookPublisher := webhook.NewPublisher(webhookRepo, logger)
		alertWorker := alert.NewWorker(cacheClient.Client(), webhookPublisher, logger, alert.NewConsumerID(), recorder)
		alertWorker.SetBatchSize(cfg.AlertBatchSize)
		go func() {
			if err := alertWorker.Run(ctx); err != nil {
				logger.Error("alert worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("alert worker", alertWorker.Shutdown)
	}

	if cfg.WebhooksEnabled {
		deliveryWorker := webhook.NewWorker(webhookRepo, logger, recorder)
		deliveryWorker.SetBatchSize(cfg.WebhookBatchSize)
		deliveryWorker.SetPollInterval(cfg.WebhookPollInterval)
		deliveryCtx, stopDelivery := context.WithCancel(ctx)
		go func() {
			if err := deliveryWorker.Run(deliveryCtx); err != nil {
				logger.Error("webhook worker stopped", "error", err)
			}
		}()
		srv.OnShutdown("webhook worker", func(context.Context) error {
			stopDelivery()
			return nil
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// routerDeps bundles everything the router needs.
type routerDeps struct {
	health       *handler.HealthHandler
	csrf         *handler.CSRFHandler
	subscription *handler.SubscriptionHandler
	protection   *handler.ProtectionHandler
	threat       *handler.ThreatHandler
	scan         *handler.ScanHandler
	webhook      *handler.WebhookHandler
	cache        *cache.Cache
	tokens       *token.Service
	auditSink    audit.Sink
	recorder     *metrics.PrometheusRecorder
	cfg          *config.Config
	logger       *slog.Logger
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(deps routerDeps) *chi.Mux {
	cfg := deps.cfg
	logger := deps.logger

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:        logger,
		Cache:         deps.cache,
		APIEnabled:    cfg.RateLimitAPIEnabled,
		APIPerMinute:  cfg.RateLimitAPIPerMinute,
		APIBurst:      cfg.RateLimitAPIBurst,
		PublicEnabled: cfg.RateLimitPublicEnabled,
		PublicRPS:     cfg.RateLimitPublicRPS,
		PublicBurst:   cfg.RateLimitPublicBurst,
	}

	// Public endpoints, rate limited per IP
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))

		r.Get("/healthz", deps.health.Healthz)
		r.Get("/readyz", deps.health.Readyz)
		r.Method("GET", "/metrics", deps.recorder.Handler())
		r.Get("/api/v1/plans", deps.subscription.Plans)
	})

	// Authenticated dashboard API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(middleware.SessionConfig{
			Logger:   logger,
			Sessions: deps.cache,
			Audit:    deps.auditSink,
		}))
		r.Use(middleware.RateLimitAPI(rateLimitCfg))
		r.Use(middleware.CSRF(middleware.CSRFConfig{
			Logger:  logger,
			Tokens:  deps.tokens,
			Audit:   deps.auditSink,
			Metrics: deps.recorder,
		}))

		r.Get("/csrf-token", deps.csrf.Issue)

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/", deps.subscription.Get)
			r.Post("/", deps.subscription.Create)
			r.Patch("/", deps.subscription.Update)
			r.Delete("/", deps.subscription.Cancel)
		})

		r.Route("/protection", func(r chi.Router) {
			r.Get("/", deps.protection.Get)
			r.Patch("/", deps.protection.Update)
		})

		r.Route("/threats", func(r chi.Router) {
			r.Get("/", deps.threat.List)
			r.Post("/", deps.threat.Report)
			r.Get("/{id}", deps.threat.Get)
			r.Patch("/{id}", deps.threat.Update)
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Get("/", deps.webhook.List)
			r.Post("/", deps.webhook.Create)
			r.Post("/deliveries/{deliveryID}/retry", deps.webhook.RetryDelivery)
			r.Get("/{id}", deps.webhook.Get)
			r.Patch("/{id}", deps.webhook.Update)
			r.Delete("/{id}", deps.webhook.Delete)
			r.Post("/{id}/rotate-secret", deps.webhook.RotateSecret)
			r.Get("/{id}/deliveries", deps.webhook.ListDeliveries)
		})

		r.Post("/scan", deps.scan.Scan)
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}

// Command api runs the Cape Fasteners assistant HTTP service.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/capefasteners/supply-ai-platform/internal/api/router"
	"github.com/capefasteners/supply-ai-platform/internal/assistant"
	"github.com/capefasteners/supply-ai-platform/internal/compliance"
	appconfig "github.com/capefasteners/supply-ai-platform/internal/config"
	"github.com/capefasteners/supply-ai-platform/internal/http/handlers"
	"github.com/capefasteners/supply-ai-platform/internal/knowledge"
	"github.com/capefasteners/supply-ai-platform/internal/notify"
	"github.com/capefasteners/supply-ai-platform/internal/observability/metrics"
	"github.com/capefasteners/supply-ai-platform/internal/products"
	"github.com/capefasteners/supply-ai-platform/internal/quotes"
	"github.com/capefasteners/supply-ai-platform/internal/response"
	"github.com/capefasteners/supply-ai-platform/internal/scoring"
	"github.com/capefasteners/supply-ai-platform/internal/session"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting supply-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Durable storage. Without DATABASE_URL the service runs entirely in
	// memory, which is enough for demos and local development.
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("database unreachable", "error", err)
			os.Exit(1)
		}
	}

	var sessionRepo session.Repository
	var eventRepo scoring.EventRepository
	var catalogRepo products.Repository
	if db != nil {
		sessionRepo = session.NewPostgresRepository(db)
		eventRepo = scoring.NewPostgresEventRepository(db)
		catalogRepo = products.NewPostgresCatalog(db)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage and the demo catalog")
		sessionRepo = session.NewMemoryRepository()
		eventRepo = scoring.NewMemoryEventRepository()
		catalogRepo = products.NewStaticCatalog(products.DemoCatalog())
	}

	// Session working-set cache: Redis when configured, in-process otherwise.
	var cache session.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Error("redis unreachable", "error", err)
			os.Exit(1)
		}
		cache = session.NewRedisCache(client, cfg.SessionCacheTTL, nil, logger)
	} else {
		cache = session.NewMemoryCache(cfg.SessionCacheTTL, cfg.SessionCacheSize)
	}

	base, err := knowledge.Load(cfg.KnowledgeDir, logger)
	if err != nil {
		logger.Error("failed to load knowledge base", "error", err)
		os.Exit(1)
	}

	matcher, err := assistant.NewMatcher(base, logger)
	if err != nil {
		logger.Error("failed to build pattern matcher", "error", err)
		os.Exit(1)
	}
	classifier := assistant.NewClassifier(matcher, logger)

	catalog, err := products.NewEngine(ctx, catalogRepo, logger)
	if err != nil {
		logger.Error("failed to build product catalog", "error", err)
		os.Exit(1)
	}

	assistantMetrics := metrics.NewAssistantMetrics(nil)
	store := session.NewStore(sessionRepo, cache, cfg.SessionWindow, cfg.ContextMessageLimit, logger)

	// Hot-lead notifications: SendGrid when configured, log-only otherwise.
	var emailSender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifyService := notify.NewService(emailSender, cfg.SalesEmail, logger)
	notifyQueue := notify.NewQueue(notifyService, cfg.NotifyQueueSize, cfg.WorkerCount, assistantMetrics, logger)

	scores := scoring.NewEngine(store, eventRepo, notifyQueue, cfg.NotifyCooldown, logger)

	orchestrator := assistant.NewOrchestrator(
		classifier,
		store,
		scores,
		catalog,
		quotes.NewEngine(logger),
		compliance.NewEngine(base.Compliance, logger),
		response.NewGenerator(base.Templates, logger),
		assistantMetrics,
		logger,
	)

	r := router.New(&router.Config{
		Logger:             logger,
		Health:             handlers.NewHealthHandler(db, catalog),
		Assistant:          handlers.NewAssistantHandler(orchestrator, logger),
		Admin:              handlers.NewAdminHandler(scores, store, logger),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		AssistantRate:      5,
		AssistantBurst:     10,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	if err := notifyQueue.Shutdown(shutdownCtx); err != nil {
		logger.Error("notification queue shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/capefasteners/supply-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/capefasteners/supply-ai-platform/internal/http/middleware"
	"github.com/capefasteners/supply-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Health             *handlers.HealthHandler
	Assistant          *handlers.AssistantHandler
	Admin              *handlers.AdminHandler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	AssistantRate      float64 // requests/sec per IP; 0 disables rate limiting
	AssistantBurst     int
	CORSAllowedOrigins []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Check)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.Assistant != nil {
			public.Route("/assistant", func(r chi.Router) {
				if cfg.AssistantRate > 0 {
					r.Use(httpmiddleware.RateLimit(cfg.AssistantRate, cfg.AssistantBurst))
				}
				r.Post("/message", cfg.Assistant.HandleMessage)
			})
		}
	})

	// Admin endpoints, JWT-protected
	if cfg.Admin != nil && cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads/hot", cfg.Admin.HotLeads)
			admin.Get("/analytics", cfg.Admin.Analytics)
			admin.Post("/sessions/{sessionID}/close", cfg.Admin.CloseSession)
		})
	}

	return r
}

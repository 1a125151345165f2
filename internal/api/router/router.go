package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/rehab-scheduler/internal/http/middleware"
	"github.com/wolfman30/rehab-scheduler/internal/invoices"
	"github.com/wolfman30/rehab-scheduler/internal/live"
	"github.com/wolfman30/rehab-scheduler/internal/scheduler"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	SchedulerHandler   *scheduler.Handler
	InvoicesHandler    *invoices.Handler
	LiveHub            *live.Hub
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-IP limits on /api; zero RateLimitRPS disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.LiveHub != nil {
			public.Handle("/live", cfg.LiveHub)
		}
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimitRPS > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
		}
		api.Use(middleware.Compress(5, "application/json", "text/csv", "text/plain"))
		if cfg.SchedulerHandler != nil {
			cfg.SchedulerHandler.RegisterRoutes(api)
		}
		if cfg.InvoicesHandler != nil {
			api.Mount("/invoices", cfg.InvoicesHandler.Routes())
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/calegray/brainstem/internal/api/handlers"
	mw "github.com/calegray/brainstem/internal/api/middleware"
	"github.com/calegray/brainstem/internal/config"
	"github.com/calegray/brainstem/internal/domain"
	"github.com/calegray/brainstem/internal/service"
	"github.com/calegray/brainstem/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router   *chi.Mux
	Sessions *service.SessionService
	Expirer  *service.ExpirerService

	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	episodeStore := store.NewEpisodeStore(db)
	traceStore := store.NewTraceStore(db)

	// Core thresholds come from the environment once, at wiring time.
	tuning := config.Tuning()

	// Services
	sessionSvc := service.NewSessionService(episodeStore, traceStore, tuning, logger)
	expirerSvc := service.NewExpirerService(sessionSvc, logger)

	// Handlers
	episodeHandler := handlers.NewEpisodeHandler(sessionSvc)
	decisionHandler := handlers.NewDecisionHandler(sessionSvc)
	traceHandler := handlers.NewTraceHandler(sessionSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Sessions:  sessionSvc,
		Expirer:   expirerSvc,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Route("/episodes", func(r chi.Router) {
			r.Post("/", episodeHandler.Start)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", episodeHandler.GetByID)
				r.Delete("/", episodeHandler.End)
				r.Post("/decide", decisionHandler.Decide)
				r.Post("/observe", decisionHandler.Observe)
				r.Get("/beliefs", traceHandler.Beliefs)
				r.Get("/trace", traceHandler.Trace)
			})
		})
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"live_sessions":  app.Sessions.LiveSessions(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores satisfy the domain interfaces at compile time.
var (
	_ domain.EpisodeStore = (*store.EpisodeStore)(nil)
	_ domain.TraceStore   = (*store.TraceStore)(nil)
)

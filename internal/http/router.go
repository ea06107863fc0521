package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"visitlog/internal/config"
)

// NewRouter wires application routes and middleware using chi.
func NewRouter(cfg config.Config, tracker VisitTracker, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(newSecurityHeadersMiddleware(cfg.Environment))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	handler := NewTrackHandler(tracker, logger)

	if !cfg.SheetsConfigured() {
		logger.Warn("Google Sheets is not configured; tracking requests will fail")
	}

	r.Post("/track", handler.Track)
	r.Route("/api", func(r chi.Router) {
		r.Post("/track", handler.Track)

		if cfg.DebugEndpoints {
			if !cfg.IsDevelopment() {
				logger.Warn("debug endpoints enabled outside development; /api/debug-sheets exposes raw errors")
			}
			r.Get("/debug-sheets", handler.DebugSheets)
		}
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}

// Package api exposes the report service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/UnknownOlympus/terra/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Reporter is the service the handlers delegate to.
type Reporter interface {
	Geocode(ctx context.Context, address string) (*models.GeocodeResult, error)
	BuildReport(ctx context.Context, address string, radiusMiles float64) (*models.Report, error)
}

// NewRouter wires the HTTP handlers and the static frontend served from staticDir.
func NewRouter(log *slog.Logger, reporter Reporter, staticDir string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(loggingMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	handler := &Handler{log: log, reporter: reporter}
	router.Post("/geocode", handler.Geocode)
	router.Post("/report", handler.Report)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	})
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	return router
}

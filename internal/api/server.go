// Package api provides the HTTP server for the Inschoolz progression
// engine: user progress, awards, game scores, daily limits, rankings,
// and the admin settings surface.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/inschoolz/engine/internal/app/experience"
	"github.com/inschoolz/engine/internal/app/games"
	"github.com/inschoolz/engine/internal/app/limits"
	"github.com/inschoolz/engine/internal/app/ranking"
	"github.com/inschoolz/engine/internal/app/settings"
	"github.com/inschoolz/engine/internal/infra/sqlite"
)

// Server is the engine's HTTP API server.
type Server struct {
	engine   *experience.Engine
	games    *games.Adapter
	limits   *limits.Tracker
	rankings *ranking.Reader
	settings *settings.Cache
	db       *sqlite.DB

	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(eng *experience.Engine, ga *games.Adapter, tr *limits.Tracker, rd *ranking.Reader, sc *settings.Cache, db *sqlite.DB) *Server {
	return &Server{engine: eng, games: ga, limits: tr, rankings: rd, settings: sc, db: db}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/progress", s.handleProgress)
			r.Get("/history", s.handleHistory)
			r.Get("/limits", s.handleLimits)
			r.Get("/rank", s.handleRank)
		})

		r.Post("/experience/award", s.handleAward)
		r.Post("/games/score", s.handleGameScore)

		r.Get("/rankings/{scope}", s.handleRankings)
		r.Get("/rankings/{scope}/snapshots", s.handleSnapshots)

		r.Get("/admin/settings", s.handleGetSettings)
		r.Put("/admin/settings", s.handlePutSettings)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"status":  ww.Status(),
			"elapsed": time.Since(start),
		}).Debug("http request")
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

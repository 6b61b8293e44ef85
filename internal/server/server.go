// Package server exposes the HTTP API: CSV export/import, recurring
// projection, alert inspection, monthly reports and settings.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rmachado/gestor/internal/alerts"
	"github.com/rmachado/gestor/internal/auth"
	"github.com/rmachado/gestor/internal/config"
	"github.com/rmachado/gestor/internal/recurrence"
	"github.com/rmachado/gestor/internal/reports"
	"github.com/rmachado/gestor/internal/storage"
	"github.com/rmachado/gestor/internal/transcoder"
)

// tokenDuration is the lifetime of issued API tokens.
const tokenDuration = 24 * time.Hour

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	store      storage.Store
	transcoder *transcoder.Transcoder
	projector  *recurrence.Projector
	classifier *alerts.Classifier
	reporter   *reports.Reporter

	jwt      *auth.JWTManager
	password *auth.PasswordChecker
	secured  bool
}

// New wires a Server over the store. Auth is enabled only when cfg
// carries an API secret; without one every endpoint is open.
func New(store storage.Store, cfg config.AuthConfig) *Server {
	s := &Server{
		store:      store,
		transcoder: transcoder.New(store),
		projector:  recurrence.New(store, nil),
		classifier: alerts.NewClassifier(store),
		reporter:   reports.New(store),
		secured:    cfg.Secret != "",
	}
	if s.secured {
		s.jwt = auth.NewJWTManager(cfg.Secret, tokenDuration)
		s.password = auth.NewPasswordChecker(cfg.AdminPasswordHash)
	}
	return s
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/token", s.handleToken)

	mux.Handle("GET /api/v1/csv/export", s.authenticated(s.handleExport))
	mux.Handle("POST /api/v1/csv/import", s.authenticated(s.handleImportPreview))
	mux.Handle("POST /api/v1/csv/import/execute", s.authenticated(s.handleImportExecute))
	mux.Handle("POST /api/v1/apartments/{id}/generate-recurring", s.authenticated(s.handleGenerateRecurring))
	mux.Handle("GET /api/v1/alerts", s.authenticated(s.handleAlerts))
	mux.Handle("GET /api/v1/reports/monthly", s.authenticated(s.handleMonthlyReport))
	mux.Handle("PATCH /api/v1/expenses/{id}/paid", s.authenticated(s.handleMarkPaid))
	mux.Handle("GET /api/v1/settings", s.authenticated(s.handleGetSettings))
	mux.Handle("PUT /api/v1/settings", s.authenticated(s.handlePutSettings))

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return withLogging(withCORS(withMetrics(mux)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON renders a JSON response. Encoding failures are logged; the
// status line is already on the wire by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError renders the uniform failure envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

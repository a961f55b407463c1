// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/evalboard/internal/adapters/repository"
	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RecordDependencies
	AnalyticsDependencies
	InspectorDependencies
	AdminDependencies
	StatsProvider
}

// WindowProvider supplies the window used when a request names none.
type WindowProvider interface {
	DefaultWindow() analytics.Window
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	recordsHandler   *RecordsHandler
	analyticsHandler *AnalyticsHandler
	inspectorHandler *InspectorHandler
	adminHandler     *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		recordsHandler:   NewRecordsHandler(deps),
		analyticsHandler: NewAnalyticsHandler(deps),
		inspectorHandler: NewInspectorHandler(deps),
		adminHandler:     NewAdminHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, name)))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /metrics", "metrics", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("POST /records", "submit_record", s.recordsHandler.HandlePostRecord)
	route("GET /records", "list_records", s.recordsHandler.HandleListRecords)
	route("POST /records/{id}/approve", "approve_record", s.recordsHandler.HandleApproveRecord)

	route("GET /kpis", "kpis", s.analyticsHandler.HandleKPIs)
	route("GET /trend", "trend", s.analyticsHandler.HandleTrend)
	route("GET /categories", "categories", s.analyticsHandler.HandleCategories)
	route("GET /items", "items", s.analyticsHandler.HandleItems)
	route("GET /matrix", "matrix", s.analyticsHandler.HandleMatrix)
	route("GET /risk", "risk", s.analyticsHandler.HandleRisk)
	route("GET /analysis", "analysis", s.analyticsHandler.HandleAnalysis)

	route("GET /performance/{id}", "performance", s.inspectorHandler.HandlePerformance)
	route("GET /forecast/{id}", "forecast", s.inspectorHandler.HandleForecast)
	route("GET /notifications/{id}", "notifications", s.inspectorHandler.HandleNotifications)

	route("POST /items/{id}/approve", "approve_item", s.adminHandler.HandleApproveItem)
	route("POST /targets", "targets", s.adminHandler.HandleSaveTargets)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// windowed wraps a windowed result.
type windowed struct {
	From string `json:"from"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and store errors into responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrAnalystDisabled), errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// noWindow leaves both bounds open.
var noWindow = analytics.Window{} //nolint:gochecknoglobals // zero value

// parseWindow reads from/to (YYYY-MM-DD). A missing bound takes the
// default window's value.
func parseWindow(r *http.Request, def analytics.Window) (analytics.Window, error) {
	w := def
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *string
	}{{"from", &w.From}, {"to", &w.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, v); err != nil {
			return w, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrBadRequest, p.name)
		}
		*p.dst = v
	}
	if w.From != "" && w.To != "" && w.To < w.From {
		return w, fmt.Errorf("%w: to is before from", ErrBadRequest)
	}
	return w, nil
}

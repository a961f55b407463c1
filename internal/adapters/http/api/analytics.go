package api

import (
	"context"
	"net/http"

	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/types"
)

// AnalyticsDependencies covers the team-wide views.
type AnalyticsDependencies interface {
	WindowProvider
	KPIs(ctx context.Context, w analytics.Window) (types.GlobalKPIs, error)
	Trend(ctx context.Context, w analytics.Window) ([]types.TrendPoint, error)
	Categories(ctx context.Context, w analytics.Window) ([]types.Share, error)
	Items(ctx context.Context, w analytics.Window) ([]types.Share, error)
	Matrix(ctx context.Context, w analytics.Window) ([]types.ComparativeMatrixRow, error)
	Risk(ctx context.Context, w analytics.Window) ([]types.InspectorPerformance, error)
	Analysis(ctx context.Context, w analytics.Window) (string, error)
}

// AnalyticsHandler serves the dashboard aggregates.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

type kpisResponse struct {
	From    string            `json:"from"`
	To      string            `json:"to"`
	KPIs    types.GlobalKPIs  `json:"kpis"`
	Metrics []types.KPIMetric `json:"metrics"`
}

type riskResponse struct {
	From   string                       `json:"from"`
	To     string                       `json:"to"`
	Counts map[types.RiskLevel]int      `json:"counts"`
	Data   []types.InspectorPerformance `json:"data"`
}

type analysisResponse struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Analysis string `json:"analysis"`
}

// serveWindowed parses the window, runs fetch and writes the result.
func serveWindowed[T any](h *AnalyticsHandler, w http.ResponseWriter, r *http.Request, op string,
	fetch func(context.Context, analytics.Window) ([]T, error),
) {
	win, err := parseWindow(r, h.deps.DefaultWindow())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	data, err := fetch(r.Context(), win)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if data == nil {
		data = []T{}
	}
	writeJSON(w, http.StatusOK, windowed{From: win.From, To: win.To, Data: data})
}

// HandleKPIs handles GET /kpis.
func (h *AnalyticsHandler) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	const op = "api.kpis"
	win, err := parseWindow(r, h.deps.DefaultWindow())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	k, err := h.deps.KPIs(r.Context(), win)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, kpisResponse{From: win.From, To: win.To, KPIs: k, Metrics: analytics.KPIMetrics(k)})
}

// HandleTrend handles GET /trend.
func (h *AnalyticsHandler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	serveWindowed(h, w, r, "api.trend", h.deps.Trend)
}

// HandleCategories handles GET /categories.
func (h *AnalyticsHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	serveWindowed(h, w, r, "api.categories", h.deps.Categories)
}

// HandleItems handles GET /items.
func (h *AnalyticsHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	serveWindowed(h, w, r, "api.items", h.deps.Items)
}

// HandleMatrix handles GET /matrix.
func (h *AnalyticsHandler) HandleMatrix(w http.ResponseWriter, r *http.Request) {
	serveWindowed(h, w, r, "api.matrix", h.deps.Matrix)
}

// HandleRisk handles GET /risk.
func (h *AnalyticsHandler) HandleRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.risk"
	win, err := parseWindow(r, h.deps.DefaultWindow())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	rows, err := h.deps.Risk(r.Context(), win)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	counts := analytics.SummaryRiskCounts(rows)
	if rows == nil {
		rows = []types.InspectorPerformance{}
	}
	writeJSON(w, http.StatusOK, riskResponse{From: win.From, To: win.To, Counts: counts, Data: rows})
}

// HandleAnalysis handles GET /analysis. It answers 503 when no analyst is
// configured.
func (h *AnalyticsHandler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	const op = "api.analysis"
	win, err := parseWindow(r, h.deps.DefaultWindow())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	text, err := h.deps.Analysis(r.Context(), win)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{From: win.From, To: win.To, Analysis: text})
}

package api

import (
	"context"
	"net/http"

	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
)

// InspectorDependencies covers the per-inspector views.
type InspectorDependencies interface {
	WindowProvider
	Performance(ctx context.Context, inspectorID string, w analytics.Window) (types.AdvancedPerformanceMetric, error)
	Forecast(ctx context.Context, inspectorID string) (types.Forecast, error)
	Notifications(ctx context.Context, inspectorID string) ([]model.Notification, error)
}

// InspectorHandler serves per-inspector requests.
type InspectorHandler struct {
	deps InspectorDependencies
}

// NewInspectorHandler creates a new inspector handler.
func NewInspectorHandler(deps InspectorDependencies) *InspectorHandler {
	return &InspectorHandler{deps: deps}
}

// HandlePerformance handles GET /performance/{id}.
func (h *InspectorHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	const op = "api.performance"
	win, err := parseWindow(r, h.deps.DefaultWindow())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	m, err := h.deps.Performance(r.Context(), r.PathValue("id"), win)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, windowed{From: win.From, To: win.To, Data: m})
}

// HandleForecast handles GET /forecast/{id}. The forecast always covers
// the current month.
func (h *InspectorHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	f, err := h.deps.Forecast(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleNotifications handles GET /notifications/{id}.
func (h *InspectorHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.deps.Notifications(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.notifications", err)
		return
	}
	if notes == nil {
		notes = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notes)
}

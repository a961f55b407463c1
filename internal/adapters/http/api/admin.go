package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/evalboard/internal/domain/model"
)

// AdminDependencies covers catalogue approval and target assignment.
type AdminDependencies interface {
	ApproveItem(ctx context.Context, id string) error
	SaveTargets(ctx context.Context, targets []model.Target) error
}

// AdminHandler serves manager and admin writes.
type AdminHandler struct {
	deps AdminDependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// targetRequest mirrors the OpenAPI schema for one POST /targets entry.
type targetRequest struct {
	ID          string `json:"id"`
	InspectorID string `json:"inspector_id"`
	MainItem    string `json:"main_item"`
	TargetValue int    `json:"target_value"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// HandleApproveItem handles POST /items/{id}/approve.
func (h *AdminHandler) HandleApproveItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.deps.ApproveItem(r.Context(), id); err != nil {
		writeServiceError(w, "api.approve_item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.StatusApproved)})
}

// HandleSaveTargets handles POST /targets with a JSON array body. The batch
// is stored whole or not at all.
func (h *AdminHandler) HandleSaveTargets(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_targets"
	var req []targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	targets := make([]model.Target, 0, len(req))
	for _, t := range req {
		targets = append(targets, model.Target(t))
	}
	if err := h.deps.SaveTargets(r.Context(), targets); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"saved": len(targets)})
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/evalboard/internal/adapters/repository"
	service "github.com/okian/evalboard/internal/app"
	"github.com/okian/evalboard/internal/domain/model"
)

// RecordDependencies covers record intake, listing and approval.
type RecordDependencies interface {
	Submit(ctx context.Context, sub model.Submission) (service.SubmitStatus, string, error)
	Records(ctx context.Context, f repository.RecordFilter) ([]model.EvaluationRecord, error)
	ApproveRecord(ctx context.Context, id string) error
}

// RecordsHandler handles /records requests.
type RecordsHandler struct {
	deps RecordDependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps RecordDependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// submissionRequest mirrors the OpenAPI schema for POST /records.
type submissionRequest struct {
	SubmissionID string `json:"submission_id"`
	Date         string `json:"date"`
	InspectorID  string `json:"inspector_id"`
	ItemID       string `json:"item_id"`
	Count        int    `json:"count"`
	Notes        string `json:"notes"`
}

type ackResponse struct {
	Status       string `json:"status"`
	Duplicate    bool   `json:"duplicate"`
	SubmissionID string `json:"submission_id"`
}

// HandlePostRecord handles POST /records. New submissions answer 202,
// repeats 200 and a full queue 429.
func (h *RecordsHandler) HandlePostRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_record"
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	status, id, err := h.deps.Submit(r.Context(), model.Submission{
		SubmissionID: strings.TrimSpace(req.SubmissionID),
		Date:         req.Date,
		InspectorID:  strings.TrimSpace(req.InspectorID),
		ItemID:       strings.TrimSpace(req.ItemID),
		Count:        req.Count,
		Notes:        req.Notes,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if status == service.SubmitDuplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, SubmissionID: id})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SubmissionID: id})
}

// HandleListRecords handles GET /records with optional from, to,
// inspector_id, status, sub_item and limit filters.
func (h *RecordsHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_records"
	win, err := parseWindow(r, noWindow)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	q := r.URL.Query()
	f := repository.RecordFilter{
		DateFrom:    win.From,
		DateTo:      win.To,
		InspectorID: q.Get("inspector_id"),
		Status:      model.Status(q.Get("status")),
		SubItem:     q.Get("sub_item"),
	}
	if f.Status != "" && !f.Status.Valid() {
		writeServiceError(w, op, fmt.Errorf("%w: unknown status %q", ErrBadRequest, f.Status))
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		f.Limit = n
	}

	records, err := h.deps.Records(r.Context(), f)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if records == nil {
		records = []model.EvaluationRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleApproveRecord handles POST /records/{id}/approve.
func (h *RecordsHandler) HandleApproveRecord(w http.ResponseWriter, r *http.Request) {
	const op = "api.approve_record"
	id := r.PathValue("id")
	if err := h.deps.ApproveRecord(r.Context(), id); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(model.StatusApproved)})
}

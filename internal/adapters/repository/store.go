// Package repository defines the record store and its implementations.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/metrics"
)

// RecordFilter narrows ListRecords. Zero fields match everything; date
// bounds are inclusive.
type RecordFilter struct {
	DateFrom    string
	DateTo      string
	InspectorID string
	Status      model.Status
	SubItem     string
	Limit       int // <= 0 means no limit
}

// Match reports whether r passes the filter.
func (f RecordFilter) Match(r model.EvaluationRecord) bool {
	if !r.InWindow(f.DateFrom, f.DateTo) {
		return false
	}
	if f.InspectorID != "" && r.InspectorID != f.InspectorID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.SubItem != "" && r.SubItem != f.SubItem {
		return false
	}
	return true
}

// Store provides read/write access to inspections, the roster, the item
// catalogue, targets and notifications.
type Store interface {
	// ListRecords returns matching records ordered by date, then id.
	ListRecords(ctx context.Context, f RecordFilter) ([]model.EvaluationRecord, error)
	ListInspectors(ctx context.Context) ([]model.Inspector, error)
	ListItems(ctx context.Context) ([]model.EvaluationItem, error)
	ListTargets(ctx context.Context) ([]model.Target, error)

	// Inspector and Item return ErrNotFound for unknown ids.
	Inspector(ctx context.Context, id string) (model.Inspector, error)
	Item(ctx context.Context, id string) (model.EvaluationItem, error)

	// CreateRecord validates and stores a new record. Invalid records are
	// rejected with ErrInvalidRecord.
	CreateRecord(ctx context.Context, r model.EvaluationRecord) error
	UpdateRecordStatus(ctx context.Context, id string, status model.Status) error
	UpdateItemStatus(ctx context.Context, id string, status model.Status) error

	// SaveBatchTargets stores targets, replacing rows with the same id.
	SaveBatchTargets(ctx context.Context, targets []model.Target) error
	UpsertInspectors(ctx context.Context, inspectors []model.Inspector) error
	UpsertItems(ctx context.Context, items []model.EvaluationItem) error

	SaveNotification(ctx context.Context, n model.Notification) error
	// ListNotifications returns an inspector's notifications, newest first.
	ListNotifications(ctx context.Context, inspectorID string) ([]model.Notification, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// ValidateRecord checks the fields every stored record must carry.
func ValidateRecord(r model.EvaluationRecord) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	case r.InspectorID == "":
		return fmt.Errorf("%w: missing inspector", ErrInvalidRecord)
	case r.Count < 1:
		return fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidRecord, r.Count)
	case !r.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, r.Status)
	}
	if _, err := time.Parse(model.DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: bad date %q", ErrInvalidRecord, r.Date)
	}
	return nil
}

// ValidateTarget checks a target row.
func ValidateTarget(t model.Target) error {
	switch {
	case t.InspectorID == "":
		return fmt.Errorf("%w: missing inspector", ErrInvalidTarget)
	case t.TargetValue < 1:
		return fmt.Errorf("%w: target value must be positive, got %d", ErrInvalidTarget, t.TargetValue)
	case t.StartDate != "" && t.EndDate != "" && t.EndDate < t.StartDate:
		return fmt.Errorf("%w: window ends before it starts", ErrInvalidTarget)
	}
	for _, d := range []string{t.StartDate, t.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, d); err != nil {
			return fmt.Errorf("%w: bad date %q", ErrInvalidTarget, d)
		}
	}
	return nil
}

// observe records the latency of a store operation.
func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}

var (
	_ Store = (*MemStore)(nil)
	_ Store = (*MongoStore)(nil)
)

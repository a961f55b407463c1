package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/evalboard/internal/domain/model"
)

// MemStore is an in-memory Store. Roster and catalogue keep insertion order.
type MemStore struct {
	mu sync.RWMutex

	inspectors   []model.Inspector
	inspectorIdx map[string]int
	items        []model.EvaluationItem
	itemIdx      map[string]int
	records      []model.EvaluationRecord
	recordIdx    map[string]int
	targets      []model.Target
	targetIdx    map[string]int
	notes        map[string][]model.Notification // by inspector id
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		inspectorIdx: make(map[string]int),
		itemIdx:      make(map[string]int),
		recordIdx:    make(map[string]int),
		targetIdx:    make(map[string]int),
		notes:        make(map[string][]model.Notification),
	}
}

func (s *MemStore) ListRecords(_ context.Context, f RecordFilter) ([]model.EvaluationRecord, error) {
	defer observe("list_records", time.Now())

	s.mu.RLock()
	out := make([]model.EvaluationRecord, 0, len(s.records))
	for _, r := range s.records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemStore) ListInspectors(_ context.Context) ([]model.Inspector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Inspector(nil), s.inspectors...), nil
}

func (s *MemStore) ListItems(_ context.Context) ([]model.EvaluationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.EvaluationItem(nil), s.items...), nil
}

func (s *MemStore) ListTargets(_ context.Context) ([]model.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Target(nil), s.targets...), nil
}

func (s *MemStore) Inspector(_ context.Context, id string) (model.Inspector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.inspectorIdx[id]
	if !ok {
		return model.Inspector{}, fmt.Errorf("inspector %q: %w", id, ErrNotFound)
	}
	return s.inspectors[i], nil
}

func (s *MemStore) Item(_ context.Context, id string) (model.EvaluationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.itemIdx[id]
	if !ok {
		return model.EvaluationItem{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	return s.items[i], nil
}

func (s *MemStore) CreateRecord(_ context.Context, r model.EvaluationRecord) error {
	defer observe("create_record", time.Now())

	if err := ValidateRecord(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.recordIdx[r.ID]; exists {
		return fmt.Errorf("record %q: %w", r.ID, ErrDuplicate)
	}
	s.recordIdx[r.ID] = len(s.records)
	s.records = append(s.records, r)
	return nil
}

func (s *MemStore) UpdateRecordStatus(_ context.Context, id string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.recordIdx[id]
	if !ok {
		return fmt.Errorf("record %q: %w", id, ErrNotFound)
	}
	s.records[i].Status = status
	return nil
}

func (s *MemStore) UpdateItemStatus(_ context.Context, id string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.itemIdx[id]
	if !ok {
		return fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	s.items[i].Status = status
	return nil
}

func (s *MemStore) SaveBatchTargets(_ context.Context, targets []model.Target) error {
	for _, t := range targets {
		if err := ValidateTarget(t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range targets {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if i, ok := s.targetIdx[t.ID]; ok {
			s.targets[i] = t
			continue
		}
		s.targetIdx[t.ID] = len(s.targets)
		s.targets = append(s.targets, t)
	}
	return nil
}

func (s *MemStore) UpsertInspectors(_ context.Context, inspectors []model.Inspector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range inspectors {
		if in.ID == "" {
			return fmt.Errorf("%w: inspector without id", ErrInvalidRecord)
		}
		if i, ok := s.inspectorIdx[in.ID]; ok {
			s.inspectors[i] = in
			continue
		}
		s.inspectorIdx[in.ID] = len(s.inspectors)
		s.inspectors = append(s.inspectors, in)
	}
	return nil
}

func (s *MemStore) UpsertItems(_ context.Context, items []model.EvaluationItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		if it.ID == "" {
			return fmt.Errorf("%w: item without id", ErrInvalidRecord)
		}
		if it.Status == "" {
			it.Status = model.StatusApproved
		}
		if i, ok := s.itemIdx[it.ID]; ok {
			s.items[i] = it
			continue
		}
		s.itemIdx[it.ID] = len(s.items)
		s.items = append(s.items, it)
	}
	return nil
}

func (s *MemStore) SaveNotification(_ context.Context, n model.Notification) error {
	if n.InspectorID == "" {
		return fmt.Errorf("%w: notification without inspector", ErrInvalidRecord)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[n.InspectorID] = append(s.notes[n.InspectorID], n)
	return nil
}

func (s *MemStore) ListNotifications(_ context.Context, inspectorID string) ([]model.Notification, error) {
	s.mu.RLock()
	out := append([]model.Notification(nil), s.notes[inspectorID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Package service wires storage, intake and the analytics engine into the
// operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/evalboard/internal/adapters/mq/queue"
	"github.com/okian/evalboard/internal/adapters/mq/worker"
	"github.com/okian/evalboard/internal/adapters/repository"
	"github.com/okian/evalboard/internal/domain/analytics"
	"github.com/okian/evalboard/internal/domain/dedupe"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/internal/domain/types"
	"github.com/okian/evalboard/pkg/clients/analyst"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
)

// SubmitStatus reports what happened to a submission.
type SubmitStatus string

// Submission outcomes.
const (
	SubmitAccepted  SubmitStatus = "accepted"
	SubmitDuplicate SubmitStatus = "duplicate"
)

// Service implements the API dependencies for the evaluation board.
type Service struct {
	mu sync.RWMutex

	// Core components
	store   repository.Store
	engine  *analytics.Engine
	analyst analyst.Client
	deduper dedupe.Deduper
	queue   queue.Queue
	pool    *worker.Pool

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	maxListLimit int
	loc          *time.Location
	now          func() time.Time

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10_000,
		dedupeSize:   50_000,
		maxListLimit: 1000,
		loc:          time.UTC,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	if s.engine == nil {
		s.engine = analytics.NewEngine()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start creates the intake pipeline and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting evaluation service...")

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store,
		worker.WithLogger(s.logger),
		worker.WithRejectHandler(s.onReject),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("analyst", s.analyst != nil),
	)
	return nil
}

// Stop closes the queue and waits for the workers to drain it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping evaluation service...")

	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		s.logger.Warn(ctx, "workers did not drain", logger.Error(err))
		return err
	}
	s.logger.Info(ctx, "evaluation service stopped")
	return nil
}

// onReject lets a client retry a submission the workers refused.
func (s *Service) onReject(ctx context.Context, sub model.Submission, err error) {
	s.deduper.Unrecord(ctx, sub.SubmissionID)
	s.logger.Warn(ctx, "submission rejected",
		logger.String("submission_id", sub.SubmissionID),
		logger.Error(err),
	)
}

// Now returns the current time in the configured location.
func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

// DefaultWindow is month-to-date.
func (s *Service) DefaultWindow() analytics.Window {
	return analytics.MonthToDate(s.Now())
}

// Submit validates a submission, drops duplicates and queues the rest for
// the workers. An empty submission id is replaced by a fresh one.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (SubmitStatus, string, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return "", "", ErrNotStarted
	}

	if err := validateSubmission(sub); err != nil {
		metrics.RecordSubmissionRejected("invalid")
		return "", "", err
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission",
			logger.String("submission_id", sub.SubmissionID),
		)
		return SubmitDuplicate, sub.SubmissionID, nil
	}

	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, sub.SubmissionID)
		return "", sub.SubmissionID, ErrQueueFull
	}

	metrics.RecordSubmissionAccepted()
	return SubmitAccepted, sub.SubmissionID, nil
}

func validateSubmission(sub model.Submission) error {
	switch {
	case strings.TrimSpace(sub.InspectorID) == "":
		return fmt.Errorf("%w: inspector_id is required", ErrInvalidInput)
	case strings.TrimSpace(sub.ItemID) == "":
		return fmt.Errorf("%w: item_id is required", ErrInvalidInput)
	case sub.Count < 1:
		return fmt.Errorf("%w: count must be at least 1", ErrInvalidInput)
	}
	if _, err := time.Parse(model.DateLayout, sub.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

// snapshot is what most analytics calls need from the store.
type snapshot struct {
	records []model.EvaluationRecord
	roster  []model.Inspector
	targets []model.Target
}

func (s *Service) load(ctx context.Context, f repository.RecordFilter, withRoster bool) (snapshot, error) {
	var snap snapshot
	var err error
	if snap.records, err = s.store.ListRecords(ctx, f); err != nil {
		return snap, fmt.Errorf("list records: %w", err)
	}
	if !withRoster {
		return snap, nil
	}
	if snap.roster, err = s.store.ListInspectors(ctx); err != nil {
		return snap, fmt.Errorf("list inspectors: %w", err)
	}
	if snap.targets, err = s.store.ListTargets(ctx); err != nil {
		return snap, fmt.Errorf("list targets: %w", err)
	}
	return snap, nil
}

func windowFilter(w analytics.Window) repository.RecordFilter {
	return repository.RecordFilter{DateFrom: w.From, DateTo: w.To}
}

func observe(op string, start time.Time) {
	metrics.RecordAnalyticsLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// KPIs returns the global counters over the window.
func (s *Service) KPIs(ctx context.Context, w analytics.Window) (types.GlobalKPIs, error) {
	defer observe("kpis", time.Now())
	snap, err := s.load(ctx, windowFilter(w), false)
	if err != nil {
		return types.GlobalKPIs{}, err
	}
	return analytics.ComputeGlobalKPIs(snap.records), nil
}

// Performance evaluates one inspector over the window.
func (s *Service) Performance(ctx context.Context, inspectorID string, w analytics.Window) (types.AdvancedPerformanceMetric, error) {
	defer observe("performance", time.Now())
	f := windowFilter(w)
	f.InspectorID = inspectorID
	snap, err := s.load(ctx, f, true)
	if err != nil {
		return types.AdvancedPerformanceMetric{}, err
	}
	m, ok := s.engine.InspectorPerformance(snap.records, snap.roster, snap.targets, inspectorID, w)
	if !ok {
		return types.AdvancedPerformanceMetric{}, fmt.Errorf("inspector %s: %w", inspectorID, repository.ErrNotFound)
	}
	return m, nil
}

// Matrix ranks every inspector over the window.
func (s *Service) Matrix(ctx context.Context, w analytics.Window) ([]types.ComparativeMatrixRow, error) {
	defer observe("matrix", time.Now())
	snap, err := s.load(ctx, windowFilter(w), true)
	if err != nil {
		return nil, err
	}
	return s.engine.BuildMatrix(snap.records, snap.roster, snap.targets, w), nil
}

// Risk returns the risk view, most severe first, and refreshes the
// per-tier gauges.
func (s *Service) Risk(ctx context.Context, w analytics.Window) ([]types.InspectorPerformance, error) {
	defer observe("risk", time.Now())
	snap, err := s.load(ctx, windowFilter(w), true)
	if err != nil {
		return nil, err
	}
	rows := s.engine.Summaries(snap.records, snap.roster, snap.targets, w)

	for level, n := range analytics.SummaryRiskCounts(rows) {
		metrics.UpdateRiskInspectors(string(level), n)
	}
	return rows, nil
}

// Forecast projects the inspector's current month.
func (s *Service) Forecast(ctx context.Context, inspectorID string) (types.Forecast, error) {
	defer observe("forecast", time.Now())
	if _, err := s.store.Inspector(ctx, inspectorID); err != nil {
		return types.Forecast{}, fmt.Errorf("inspector %s: %w", inspectorID, err)
	}
	now := s.Now()
	month := analytics.Month(now)
	records, err := s.store.ListRecords(ctx, repository.RecordFilter{
		DateFrom: month.From, DateTo: month.To, InspectorID: inspectorID,
	})
	if err != nil {
		return types.Forecast{}, fmt.Errorf("list records: %w", err)
	}
	targets, err := s.store.ListTargets(ctx)
	if err != nil {
		return types.Forecast{}, fmt.Errorf("list targets: %w", err)
	}
	return s.engine.MonthlyForecast(records, targets, inspectorID, now), nil
}

// Trend returns units per day over the window.
func (s *Service) Trend(ctx context.Context, w analytics.Window) ([]types.TrendPoint, error) {
	defer observe("trend", time.Now())
	snap, err := s.load(ctx, windowFilter(w), false)
	if err != nil {
		return nil, err
	}
	return analytics.Trend(snap.records), nil
}

// Categories breaks the window's units down by main item.
func (s *Service) Categories(ctx context.Context, w analytics.Window) ([]types.Share, error) {
	defer observe("categories", time.Now())
	snap, err := s.load(ctx, windowFilter(w), false)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryBreakdown(snap.records), nil
}

// Items breaks the window's units down by sub item.
func (s *Service) Items(ctx context.Context, w analytics.Window) ([]types.Share, error) {
	defer observe("items", time.Now())
	snap, err := s.load(ctx, windowFilter(w), false)
	if err != nil {
		return nil, err
	}
	return analytics.ItemPerformance(snap.records), nil
}

// Records lists raw records. The limit is capped at the configured maximum.
func (s *Service) Records(ctx context.Context, f repository.RecordFilter) ([]model.EvaluationRecord, error) {
	if f.Limit <= 0 || f.Limit > s.maxListLimit {
		f.Limit = s.maxListLimit
	}
	return s.store.ListRecords(ctx, f)
}

// Notifications lists an inspector's notifications, newest first.
func (s *Service) Notifications(ctx context.Context, inspectorID string) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, inspectorID)
}

// Notify stores a notification.
func (s *Service) Notify(ctx context.Context, n model.Notification) error {
	if err := s.store.SaveNotification(ctx, n); err != nil {
		return err
	}
	metrics.RecordNotification(n.Kind)
	return nil
}

// ApproveRecord moves a record to approved. Approving twice succeeds.
func (s *Service) ApproveRecord(ctx context.Context, id string) error {
	if err := s.store.UpdateRecordStatus(ctx, id, model.StatusApproved); err != nil {
		return fmt.Errorf("approve record %s: %w", id, err)
	}
	metrics.RecordApproval("record")
	s.logger.Info(ctx, "record approved", logger.String("record_id", id))
	return nil
}

// ApproveItem moves a suggested item to approved.
func (s *Service) ApproveItem(ctx context.Context, id string) error {
	if err := s.store.UpdateItemStatus(ctx, id, model.StatusApproved); err != nil {
		return fmt.Errorf("approve item %s: %w", id, err)
	}
	metrics.RecordApproval("item")
	s.logger.Info(ctx, "item approved", logger.String("item_id", id))
	return nil
}

// SaveTargets stores a batch of targets. Either all are saved or none.
func (s *Service) SaveTargets(ctx context.Context, targets []model.Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: no targets", ErrInvalidInput)
	}
	for i := range targets {
		if targets[i].MainItem == "" {
			targets[i].MainItem = model.WildcardItem
		}
	}
	if err := s.store.SaveBatchTargets(ctx, targets); err != nil {
		if errors.Is(err, repository.ErrInvalidTarget) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return err
	}
	return nil
}

// Analysis asks the analyst for a narrative over the window.
func (s *Service) Analysis(ctx context.Context, w analytics.Window) (string, error) {
	if s.analyst == nil {
		return "", ErrAnalystDisabled
	}
	kpis, err := s.KPIs(ctx, w)
	if err != nil {
		return "", err
	}
	rows, err := s.Matrix(ctx, w)
	if err != nil {
		return "", err
	}
	return s.analyst.Analyze(ctx, analyst.Snapshot{From: w.From, To: w.To, KPIs: kpis, Matrix: rows})
}

// AnalystEnabled reports whether Analysis can succeed.
func (s *Service) AnalystEnabled() bool {
	return s.analyst != nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,

		"forecastFallbackTarget": s.engine.FallbackTarget(),
	}

	if records, err := s.store.Count(ctx); err == nil {
		stats["totalRecords"] = records
		metrics.UpdateRecordsTotal(records)
	}
	if roster, err := s.store.ListInspectors(ctx); err == nil {
		stats["totalInspectors"] = len(roster)
		metrics.UpdateInspectorsTotal(len(roster))
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.pool.Size())
	}
	return stats
}

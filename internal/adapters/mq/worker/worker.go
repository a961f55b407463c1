// Package worker persists queued submissions as evaluation records.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/evalboard/internal/adapters/repository"
	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/logger"
	"github.com/okian/evalboard/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	poolShutdownTimeout     = 30 * time.Second
)

// ErrInvalidSubmission marks a submission that can never be persisted.
var ErrInvalidSubmission = errors.New("invalid submission")

// Submission is what workers read off the queue.
type Submission = model.Submission

// Store resolves submission references and persists the resulting record.
type Store interface {
	Inspector(ctx context.Context, id string) (model.Inspector, error)
	Item(ctx context.Context, id string) (model.EvaluationItem, error)
	CreateRecord(ctx context.Context, r model.EvaluationRecord) error
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker consumes submissions until its context is done, the queue closes
// or Shutdown is called.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	store Store
	cfg   settings

	shutdown chan struct{}
	done     chan struct{}
}

func defaults() settings {
	return settings{
		name:   "worker",
		logger: logger.Get().Named("worker"),
		newID:  uuid.NewString,
	}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, store Store, opts ...Option) *InMemoryWorker {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.name != "worker" {
		cfg.logger = cfg.logger.Named(cfg.name)
	}

	return &InMemoryWorker{
		queue:    queue,
		store:    store,
		cfg:      cfg,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	in := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-in:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, s); err != nil {
				w.cfg.logger.Warn(ctx, "submission rejected",
					logger.String("submission_id", s.SubmissionID),
					logger.Error(err),
				)
				if w.cfg.onReject != nil {
					w.cfg.onReject(ctx, s, err)
				}
			}
		}
	}
}

func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.cfg.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process resolves, validates and persists one submission.
func (w *InMemoryWorker) process(ctx context.Context, s Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	rec, err := w.resolve(ctx, s)
	if err == nil {
		err = w.store.CreateRecord(ctx, rec)
	}
	if err != nil {
		reason := rejectReason(err)
		metrics.RecordSubmissionRejected(reason)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", reason)
		return err
	}

	metrics.RecordRecordPersisted()
	w.cfg.logger.Debug(ctx, "record persisted",
		logger.String("record_id", rec.ID),
		logger.String("inspector_id", rec.InspectorID),
		logger.Int("count", rec.Count),
	)
	return nil
}

func (w *InMemoryWorker) resolve(ctx context.Context, s Submission) (model.EvaluationRecord, error) {
	if s.Count < 1 {
		return model.EvaluationRecord{}, fmt.Errorf("%w: count must be at least 1", ErrInvalidSubmission)
	}
	if _, err := time.Parse(model.DateLayout, s.Date); err != nil {
		return model.EvaluationRecord{}, fmt.Errorf("%w: bad date %q", ErrInvalidSubmission, s.Date)
	}

	inspector, err := w.store.Inspector(ctx, s.InspectorID)
	if err != nil {
		return model.EvaluationRecord{}, fmt.Errorf("resolve inspector: %w", err)
	}
	item, err := w.store.Item(ctx, s.ItemID)
	if err != nil {
		return model.EvaluationRecord{}, fmt.Errorf("resolve item: %w", err)
	}

	return model.EvaluationRecord{
		ID:            w.cfg.newID(),
		Date:          s.Date,
		InspectorID:   inspector.ID,
		InspectorName: inspector.Name,
		ItemID:        item.ID,
		SubItem:       item.SubItem,
		MainItem:      item.MainItem,
		Code:          item.Code,
		Count:         s.Count,
		Status:        model.StatusPending,
		Notes:         strings.TrimSpace(s.Notes),
	}, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSubmission), errors.Is(err, repository.ErrInvalidRecord):
		return "invalid"
	case errors.Is(err, repository.ErrNotFound):
		return "unknown_reference"
	case errors.Is(err, repository.ErrDuplicate):
		return "duplicate"
	default:
		return "store_error"
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below 1 defaults to twice
// the number of CPUs.
func NewPool(workerCount int, queue Queue, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  cfg.logger.Named("pool"),
	}
	for i := range pool.workers {
		pool.workers[i] = NewInMemoryWorker(queue, store,
			append(opts, WithName("worker-"+strconv.Itoa(i)))...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue so workers drain what is left, then waits for
// them to exit or for the timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}

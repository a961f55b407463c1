// Package queue holds accepted submissions until a worker persists them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/evalboard/internal/domain/model"
	"github.com/okian/evalboard/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Submission is the payload flowing through the queue.
type Submission = model.Submission

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a submission. It returns false when the queue is full,
	// closed, or ctx is done.
	Enqueue(ctx context.Context, s Submission) bool

	// Dequeue returns a channel of submissions. The channel is closed when
	// the queue is closed and drained. Consumers share the one channel.
	Dequeue(ctx context.Context) <-chan Submission

	// Len returns the number of waiting submissions.
	Len(ctx context.Context) int

	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	items    chan Submission
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.items = make(chan Submission, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

func (q *InMemoryQueue) Enqueue(ctx context.Context, s Submission) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
	}

	select {
	case q.items <- s:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue hands out the buffer itself, so submissions a consumer has not
// received yet still count against the capacity. The ctx is unused.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Submission {
	return q.items
}

func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.items)
}

// Close stops accepting submissions. Waiting submissions are still
// delivered to consumers.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

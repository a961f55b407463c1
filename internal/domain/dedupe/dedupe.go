// Package dedupe tracks submission ids so a retried submission is logged at
// most once.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 50000

// Deduper records seen submission ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already seen and records it
	// otherwise. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the submission can be retried, e.g. after the
	// intake queue rejected it.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps ids in a map. In bounded mode the insertion order is
// kept in a ring so the oldest id is evicted first once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]uint64 // id -> insertion sequence
	ring    []ringSlot
	next    uint64 // sequence of the next insert
	maxSize int    // <= 0 means unbounded
}

type ringSlot struct {
	id  string
	seq uint64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]uint64)
	if d.maxSize > 0 {
		d.ring = make([]ringSlot, d.maxSize)
	}

	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		slot := &d.ring[d.next%uint64(d.maxSize)]
		// The slot still holds the oldest live id unless it was unrecorded
		// or overwritten since.
		if seq, ok := d.seen[slot.id]; ok && seq == slot.seq && d.next >= uint64(d.maxSize) {
			delete(d.seen, slot.id)
		}
		slot.id, slot.seq = id, d.next
	}

	d.seen[id] = d.next
	d.next++
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}

package relay

import (
	"sync"

	"github.com/roach88/livelink/internal/scene"
)

// Queue is a FIFO outbox of change records awaiting a pull by one side.
//
// The queue is unbounded when max is 0. Otherwise an enqueue that would
// exceed max evicts the oldest records first; newer records for the same
// object supersede older ones on apply, so the newest are the ones worth
// keeping.
//
// Thread-safety: all methods are safe for concurrent use. The Service
// additionally serializes access under its own mutex.
type Queue struct {
	mu      sync.Mutex
	records []scene.ChangeRecord
	max     int
}

// NewQueue creates an empty queue holding at most max records (0 = unbounded).
func NewQueue(max int) *Queue {
	if max < 0 {
		max = 0
	}
	return &Queue{max: max}
}

// Enqueue appends records to the back of the queue and returns the number
// of records evicted from the front to respect the capacity.
func (q *Queue) Enqueue(records ...scene.ChangeRecord) int {
	if len(records) == 0 {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.records = append(q.records, records...)

	if q.max == 0 || len(q.records) <= q.max {
		return 0
	}

	dropped := len(q.records) - q.max
	kept := make([]scene.ChangeRecord, q.max)
	copy(kept, q.records[dropped:])
	q.records = kept
	return dropped
}

// Drain returns the entire current contents and empties the queue as one
// indivisible operation. The returned slice is never nil.
func (q *Queue) Drain() []scene.ChangeRecord {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.records
	if out == nil {
		out = []scene.ChangeRecord{}
	}
	// Fresh backing array: the caller owns out.
	q.records = nil
	return out
}

// Len returns the current queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

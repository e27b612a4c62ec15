package dispatcher

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Pending is a command line waiting in the deferred queue.
type Pending struct {
	ID        string
	Line      string
	Submitted time.Time
}

// Queue buffers command lines from producers that do not hold exclusive
// access to the world. The exclusive owner drains it with Dispatcher.Flush.
// Queue is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	pending  []Pending
	capacity int
}

// NewQueue creates a queue. A capacity of zero means unbounded.
func NewQueue(capacity int) *Queue {
	return &Queue{capacity: capacity}
}

// Submit appends a line and returns its ID.
func (q *Queue) Submit(line string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && len(q.pending) >= q.capacity {
		return "", ErrQueueFull
	}

	p := Pending{
		ID:        uuid.New().String(),
		Line:      line,
		Submitted: time.Now(),
	}
	q.pending = append(q.pending, p)
	return p.ID, nil
}

// Len returns the number of pending lines.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// take removes and returns everything currently pending, oldest first.
func (q *Queue) take() []Pending {
	q.mu.Lock()
	defer q.mu.Unlock()

	batch := q.pending
	q.pending = nil
	return batch
}

// Clear drops all pending lines and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.pending)
	q.pending = nil
	return n
}

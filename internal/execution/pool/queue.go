package pool

import (
	"context"
	"sync"
	"time"

	"github.com/mindplus/offloader/models"
)

// Queue is a bounded FIFO of tasks. Pushing into a full queue evicts the
// oldest entry, so producers never block.
type Queue struct {
	mu    sync.Mutex
	items []models.Task
	head  int
	size  int

	// notify holds at most one wakeup for a waiting Poll
	notify chan struct{}
}

func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}

	return &Queue{
		items:  make([]models.Task, capacity),
		notify: make(chan struct{}, 1),
	}
}

// Push appends a task and returns the evicted task, if any.
func (q *Queue) Push(task models.Task) (models.Task, bool) {
	q.mu.Lock()

	var (
		evicted  models.Task
		didEvict bool
		capacity = len(q.items)
	)

	if q.size == capacity {
		evicted = q.items[q.head]
		didEvict = true
		q.head = (q.head + 1) % capacity
		q.size--
	}

	q.items[(q.head+q.size)%capacity] = task
	q.size++

	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return evicted, didEvict
}

// TryPop removes the oldest task without waiting.
func (q *Queue) TryPop() (models.Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return models.Task{}, false
	}

	task := q.items[q.head]
	q.items[q.head] = models.Task{}
	q.head = (q.head + 1) % len(q.items)
	q.size--

	return task, true
}

// Poll waits up to timeout for a task. It returns false on timeout or when
// the context is done.
func (q *Queue) Poll(ctx context.Context, timeout time.Duration) (models.Task, bool) {
	if task, ok := q.TryPop(); ok {
		return task, true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.notify:
			if task, ok := q.TryPop(); ok {
				return task, true
			}
		case <-timer.C:
			return q.TryPop()
		case <-ctx.Done():
			return models.Task{}, false
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.size
}

func (q *Queue) Cap() int {
	return len(q.items)
}

// Snapshot returns the queued tasks oldest first.
func (q *Queue) Snapshot() []models.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.Task, q.size)
	for i := range out {
		out[i] = q.items[(q.head+i)%len(q.items)]
	}

	return out
}

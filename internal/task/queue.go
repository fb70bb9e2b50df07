// Package task implements the Task Queue and the single dedicated
// scheduler goroutine that drains it, dispatching each task to completion
// before looking at the next one.
package task

import (
	"sync"

	"github.com/transcast-io/transcast/internal/models"
)

// Queue is an in-memory FIFO of enqueued tasks. The scheduler is the only
// reader; any number of callers (protocol handlers, cron) may push.
type Queue struct {
	mu    sync.Mutex
	items []*models.Task
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends a task to the back of the queue.
func (q *Queue) Push(t *models.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, t)
}

// PushAll appends tasks in order, used by the composite "bulk" action to
// enqueue Import, Process, Hash, GenerateProfiles as one atomic batch so
// nothing else can interleave between them.
func (q *Queue) PushAll(tasks ...*models.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, tasks...)
}

// Pop removes and returns the front task, or nil if the queue is empty.
func (q *Queue) Pop() *models.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t
}

// Len reports the number of tasks currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

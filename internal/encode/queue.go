// Package encode holds the central Encode Queue: the FIFO of pending
// Encode work items fed by UI EncodeGeneric commands and the "encode all"
// bulk debug action, and drained by the worker polling loop.
package encode

import (
	"sync"

	"github.com/transcast-io/transcast/internal/models"
)

// Queue is a FIFO of pending Encode work items, guarded by a single lock
// shared by every producer/consumer, mirroring the Task Queue's shape.
type Queue struct {
	mu    sync.Mutex
	items []*models.Encode
}

// NewQueue creates an empty Encode Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an Encode to the back of the queue.
func (q *Queue) Push(e *models.Encode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, e)
}

// PushFront re-inserts items at the front of the queue, preserving their
// relative order. Used when a Dormant worker is evicted and its
// current-encode plus mirrored queue must be returned to the head of the
// central queue rather than the tail.
func (q *Queue) PushFront(items ...*models.Encode) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(append([]*models.Encode{}, items...), q.items...)
}

// Pop removes and returns the front Encode, or nil if the queue is empty.
func (q *Queue) Pop() *models.Encode {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item
}

// Len reports how many items are currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

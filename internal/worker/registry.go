// Package worker holds the server-side Worker Registry: the map of
// connected/dormant transcode workers, their mirrored queues, and the
// liveness state machine that evicts workers that never reconnect,
// mirroring the daemon registry's map-plus-mutex shape.
package worker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/transcast-io/transcast/internal/models"
)

// Sink is whatever a protocol handler uses to push framed messages to a
// worker's transport. The registry only needs to hold and swap it; it
// never interprets the payload.
type Sink interface {
	Send(envelope []byte) error
	Close() error
}

// CentralQueue is the subset of the central Encode Queue the registry
// needs: popping work to fill worker capacity and pushing evicted work
// back to the front. Declared here rather than imported from internal/encode
// so the registry has no compile-time dependency on the Coordinator's
// package, which itself depends on the registry.
type CentralQueue interface {
	Pop() *models.Encode
	PushFront(items ...*models.Encode)
}

// Registry tracks every worker that has ever Initialised, keyed by its
// server-assigned id.
type Registry struct {
	logger *slog.Logger

	mu      sync.Mutex
	workers map[uint64]*models.Worker
	sinks   map[uint64]Sink
	nextID  uint64

	timeout time.Duration

	queue CentralQueue
}

// New creates an empty Registry. timeout is T_timeout: how long a
// Dormant worker is held before eviction.
func New(queue CentralQueue, timeout time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		workers: make(map[uint64]*models.Worker),
		sinks:   make(map[uint64]Sink),
		timeout: timeout,
		queue:   queue,
	}
}

// AddWorker allocates a fresh monotonically increasing id, inserts a
// Connected worker and returns the id. A worker that never Initialises is
// never recorded at all, so this is the only way an id comes into being.
func (r *Registry) AddWorker(address string, capacity int, sink Sink) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.workers[id] = &models.Worker{
		ID:       id,
		Address:  address,
		Capacity: capacity,
		State:    models.WorkerConnected,
	}
	r.sinks[id] = sink

	r.logger.Info("worker added", slog.Uint64("worker_id", id), slog.String("address", address))
	return id
}

// ReestablishWorker replaces an existing worker's transport sink and
// address, marks it Connected and clears any pending timeout. It reports
// false if maybeID does not resolve to a known worker, in which case the
// caller must fall back to AddWorker.
func (r *Registry) ReestablishWorker(maybeID *uint64, address string, sink Sink) bool {
	if maybeID == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[*maybeID]
	if !ok {
		return false
	}
	w.Address = address
	w.State = models.WorkerConnected
	w.TimeoutDeadline = time.Time{}
	r.sinks[*maybeID] = sink

	r.logger.Info("worker reestablished", slog.Uint64("worker_id", *maybeID), slog.String("address", address))
	return true
}

// StartWorkerTimeout marks a worker Dormant and sets its eviction
// deadline, called when its transport is observed to have dropped.
func (r *Registry) StartWorkerTimeout(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[id]
	if !ok {
		return
	}
	w.State = models.WorkerDormant
	w.TimeoutDeadline = time.Now().Add(r.timeout)
	delete(r.sinks, id)

	r.logger.Info("worker marked dormant", slog.Uint64("worker_id", id), slog.Time("deadline", w.TimeoutDeadline))
}

// ClearCurrentTranscodeFromWorker idempotently clears a worker's
// current-encode slot, but only when genericID matches what is actually
// assigned, so a stale or duplicate completion message cannot clobber a
// newer assignment.
func (r *Registry) ClearCurrentTranscodeFromWorker(id, genericID uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.workers[id]
	if !ok || w.Current == nil || w.Current.GenericID != genericID {
		return
	}
	w.Current = nil
}

// Dispatch pairs an Encode newly pushed into a worker's mirror with the
// sink it must be sent on; encoding and sending the envelope is the
// protocol layer's job, not the registry's.
type Dispatch struct {
	WorkerID uint64
	Sink     Sink
	Encode   *models.Encode
}

// PollingEvent runs once per tick: it evicts Dormant workers past their
// deadline, requeuing their current-encode and mirrored queue at the
// front of the central queue (preserving order so nothing is reordered
// behind newer work), then fills every Connected worker's free capacity
// from the central queue. It returns the set of Encode pushes the caller
// must now send on each worker's sink.
func (r *Registry) PollingEvent() []Dispatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var evicted []uint64
	for id, w := range r.workers {
		if w.State == models.WorkerDormant && now.After(w.TimeoutDeadline) {
			evicted = append(evicted, id)
		}
	}
	for _, id := range evicted {
		w := r.workers[id]
		requeue := make([]*models.Encode, 0, len(w.Queue)+1)
		if w.Current != nil {
			requeue = append(requeue, w.Current)
		}
		requeue = append(requeue, w.Queue...)
		delete(r.workers, id)
		delete(r.sinks, id)

		r.logger.Info("worker evicted", slog.Uint64("worker_id", id), slog.Int("requeued", len(requeue)))
		if r.queue != nil && len(requeue) > 0 {
			r.queue.PushFront(requeue...)
		}
	}

	return r.fillWorkerTranscodeQueuesLocked()
}

// fillWorkerTranscodeQueuesLocked pops items from the central queue into
// every Connected worker's free mirror capacity. Callers must hold r.mu.
func (r *Registry) fillWorkerTranscodeQueuesLocked() []Dispatch {
	var dispatches []Dispatch
	for id, w := range r.workers {
		if w.State != models.WorkerConnected {
			continue
		}
		for free := w.FreeCapacity(); free > 0; free-- {
			item := r.queue.Pop()
			if item == nil {
				break
			}
			w.Queue = append(w.Queue, item)
			dispatches = append(dispatches, Dispatch{WorkerID: id, Sink: r.sinks[id], Encode: item})
		}
	}
	return dispatches
}

// SinkFor returns the transport sink registered for a worker id, for
// Now-mode direct dispatch that bypasses both the central queue and the
// worker's mirror entirely.
func (r *Registry) SinkFor(id uint64) (Sink, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sinks[id]
	return s, ok
}

// Get returns a worker by id.
func (r *Registry) Get(id uint64) (*models.Worker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[id]
	return w, ok
}

// All returns a snapshot of every registered worker, Connected or Dormant.
func (r *Registry) All() []*models.Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Worker, 0, len(r.workers))
	for _, w := range r.workers {
		out = append(out, w)
	}
	return out
}

package task

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/transcast-io/transcast/internal/core"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
)

// Handler runs one task to completion. stopCh is closed when the
// scheduler is asked to stop; a handler that processes more than one unit
// of work (Hash) must poll it between units so a stop is observed within
// one file rather than only at task boundaries.
type Handler func(ctx context.Context, stopCh <-chan struct{}) error

// Scheduler owns the Task Queue and drains it on a single dedicated
// goroutine: pop the front task, dispatch, persist the result, repeat. No
// two tasks ever run concurrently, and tasks complete in enqueue order.
type Scheduler struct {
	queue    *Queue
	taskRepo repository.TaskRepository
	handlers map[models.TaskVariant]Handler
	logger   *slog.Logger

	pollInterval time.Duration
	onFatal      func(error)

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Scheduler. onFatal is invoked when a handler returns a
// fatal-invariant error, and the loop stops without looking at any
// further queued tasks; it defaults to logging and exiting the process,
// matching the "fatal failures abort the process" rule. Tests should
// supply their own onFatal to avoid exiting the test binary.
func New(queue *Queue, taskRepo repository.TaskRepository, handlers map[models.TaskVariant]Handler, pollInterval time.Duration, logger *slog.Logger, onFatal func(error)) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	if onFatal == nil {
		onFatal = func(err error) {
			logger.Error("fatal invariant violated, aborting", slog.Any("error", err))
			os.Exit(1)
		}
	}
	return &Scheduler{
		queue:        queue,
		taskRepo:     taskRepo,
		handlers:     handlers,
		logger:       logger,
		pollInterval: pollInterval,
		onFatal:      onFatal,
	}
}

// Start launches the scheduler loop on its own goroutine. Calling Start
// again before Stop is a programmer error.
func (s *Scheduler) Start(ctx context.Context) {
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	go s.run(ctx)
}

// Stop signals the loop to exit after its current task (if any) completes
// and waits for it to do so.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Enqueue persists a new Task row and pushes it onto the queue.
func (s *Scheduler) Enqueue(ctx context.Context, variant models.TaskVariant) (*models.Task, error) {
	t := &models.Task{Variant: variant}
	if err := s.taskRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	s.queue.Push(t)
	return t, nil
}

// bulkVariants fixes the composite "bulk" action's ordering guarantee:
// tasks complete in enqueue order, so this order is also the execution
// order.
var bulkVariants = []models.TaskVariant{
	models.TaskImportFiles,
	models.TaskProcessNewFiles,
	models.TaskHash,
	models.TaskGenerateProfiles,
}

// EnqueueBulk enqueues Import, Process, Hash, GenerateProfiles as a single
// ordered batch.
func (s *Scheduler) EnqueueBulk(ctx context.Context) ([]*models.Task, error) {
	tasks := make([]*models.Task, 0, len(bulkVariants))
	for _, v := range bulkVariants {
		t := &models.Task{Variant: v}
		if err := s.taskRepo.Create(ctx, t); err != nil {
			s.queue.PushAll(tasks...)
			return tasks, fmt.Errorf("creating task: %w", err)
		}
		tasks = append(tasks, t)
	}
	s.queue.PushAll(tasks...)
	return tasks, nil
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		t := s.queue.Pop()
		if t == nil {
			select {
			case <-s.stopCh:
				return
			case <-time.After(s.pollInterval):
			}
			continue
		}

		if !s.runTask(ctx, t) {
			return
		}
	}
}

// runTask dispatches a single task to completion and persists its start
// and finish. It returns false if the task hit a fatal invariant and the
// loop must stop.
func (s *Scheduler) runTask(ctx context.Context, t *models.Task) bool {
	t.MarkStarted()
	if err := s.taskRepo.Update(ctx, t); err != nil {
		s.logger.Error("failed to record task start", slog.Uint64("task_id", t.ID), slog.Any("error", err))
	}

	handler, ok := s.handlers[t.Variant]
	var runErr error
	if !ok {
		runErr = fmt.Errorf("no handler registered for task variant %q", t.Variant)
	} else {
		runErr = handler(ctx, s.stopCh)
	}

	if runErr != nil {
		s.logger.Error("task failed",
			slog.Uint64("task_id", t.ID),
			slog.String("variant", string(t.Variant)),
			slog.Any("error", runErr))
	}

	t.MarkCompleted(runErr)
	if err := s.taskRepo.Update(ctx, t); err != nil {
		s.logger.Error("failed to record task completion", slog.Uint64("task_id", t.ID), slog.Any("error", err))
	}

	if core.IsFatal(runErr) {
		s.onFatal(runErr)
		return false
	}
	return true
}

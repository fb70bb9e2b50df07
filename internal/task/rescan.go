package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RescanScheduler periodically enqueues a full bulk rescan (Import,
// Process, Hash, GenerateProfiles) on a cron schedule, independent of the
// scheduler's own task-draining loop. This supplements the original
// trigger-by-UI-command model with a periodic library rescan, the way the
// teacher's own scheduler drives recurring source re-ingestion.
type RescanScheduler struct {
	scheduler *Scheduler
	logger    *slog.Logger
	cronJob   *cron.Cron
}

// NewRescanScheduler builds a RescanScheduler from a 6-field cron
// expression (seconds first), the same field layout the teacher's
// scheduler parses.
func NewRescanScheduler(s *Scheduler, cronExpr string, logger *slog.Logger) (*RescanScheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(cronExpr); err != nil {
		return nil, fmt.Errorf("parsing rescan cron expression %q: %w", cronExpr, err)
	}

	cronJob := cron.New(cron.WithParser(parser), cron.WithChain(
		cron.Recover(cron.DefaultLogger),
	))

	rs := &RescanScheduler{scheduler: s, logger: logger, cronJob: cronJob}

	if _, err := cronJob.AddFunc(cronExpr, rs.fire); err != nil {
		return nil, fmt.Errorf("registering rescan schedule: %w", err)
	}

	return rs, nil
}

func (rs *RescanScheduler) fire() {
	if _, err := rs.scheduler.EnqueueBulk(context.Background()); err != nil {
		rs.logger.Error("failed to enqueue scheduled rescan", slog.Any("error", err))
		return
	}
	rs.logger.Info("enqueued scheduled rescan")
}

// Start begins the cron timer.
func (rs *RescanScheduler) Start() {
	rs.cronJob.Start()
}

// Stop stops the cron timer and waits for any in-flight fire to finish.
func (rs *RescanScheduler) Stop() {
	<-rs.cronJob.Stop().Done()
}

package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

// Job is one run of a periodic worker
type Job func(ctx context.Context) error

// Periodic runs a job on a fixed interval in the background
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A failed run is logged and retried at the next tick
type Periodic struct {
	name     string
	job      Job
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewPeriodic creates a worker running job every interval
func NewPeriodic(name string, interval time.Duration, job Job) *Periodic {
	return &Periodic{
		name:     name,
		job:      job,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the loop. The first run happens after one interval so startup is not
// delayed by the job.
func (w *Periodic) Start(ctx context.Context) {
	logging.From(ctx).Info("Periodic worker starting",
		slog.String("worker", w.name),
		slog.String("interval", w.interval.String()))

	go w.run(ctx)
}

// Stop signals the worker to stop and waits for the running job to return
func (w *Periodic) Stop() {
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Periodic worker stopped", slog.String("worker", w.name))
}

func (w *Periodic) run(ctx context.Context) {
	defer close(w.doneCh)
	logger := logging.From(ctx).With(slog.String("worker", w.name))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.job(ctx); err != nil {
				logger.Error("Periodic job failed (will retry next interval)", slog.String("error", err.Error()))
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logger.Info("Periodic worker context cancelled")
			return
		}
	}
}

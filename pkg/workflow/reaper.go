package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const defaultReaperSchedule = "* * * * *"

// Reaper sweeps expired approvals on a cron schedule and fails their
// executions. Without the sweep, an abandoned approval would park its
// execution in pending_approval forever.
type Reaper struct {
	logger       *slog.Logger
	orchestrator *Orchestrator
	cron         *cron.Cron
	schedule     string
}

func NewReaper(logger *slog.Logger, orchestrator *Orchestrator, schedule string) *Reaper {
	if schedule == "" {
		schedule = defaultReaperSchedule
	}

	return &Reaper{
		logger:       logger.With("module", "approval_reaper"),
		orchestrator: orchestrator,
		cron:         cron.New(),
		schedule:     schedule,
	}
}

func (r *Reaper) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling approval reaper: %w", err)
	}

	r.cron.Start()
	r.logger.Info("Approval reaper started", "schedule", r.schedule)

	return nil
}

// Sweep runs one pass immediately.
func (r *Reaper) Sweep(ctx context.Context) {
	expired := r.orchestrator.ExpireApprovals(ctx, time.Now().UTC())
	if expired > 0 {
		r.logger.Info("Expired approvals reaped", "count", expired)
	}
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("Approval reaper stopped")
}

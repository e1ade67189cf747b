// Package worker hosts the simulation worker: the HTTP endpoint that accepts
// pushed jobs and the polling loop that guarantees eventual pickup of jobs
// whose push never arrived.
package worker

import (
	"context"
	"log/slog"
	"time"

	"radiosim/internal/model"
	"radiosim/internal/sim"
)

// Poller periodically scans the job store for pending jobs and runs them
// through the executor, one at a time, in backlog order. It is the
// authoritative fallback for failed push dispatches.
type Poller struct {
	jobs     sim.Jobs
	exec     *sim.Executor
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller creates a poller scanning every interval.
func NewPoller(jobs sim.Jobs, exec *sim.Executor, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		jobs:     jobs,
		exec:     exec,
		interval: interval,
		logger:   logger,
	}
}

// Run loops until ctx is cancelled. A listing error is logged and treated as
// an empty cycle; the next tick retries.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started", "interval", p.interval.String())
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.cycle(ctx)
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) cycle(ctx context.Context) {
	jobs, err := p.jobs.ListJobs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("failed to list jobs, skipping cycle", "error", err)
		}
		return
	}

	for _, j := range jobs {
		if j.Status != model.StatusPending {
			continue
		}
		p.logger.Info("found pending job", "job_id", j.ID)
		if err := p.exec.Run(ctx, j); err != nil {
			// The executor already reported the terminal state.
			p.logger.Error("job run failed", "job_id", j.ID, "error", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

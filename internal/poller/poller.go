// Package poller schedules reconciliation cycles on a fixed interval.
package poller

import (
	"context"
	"time"

	"beans-dashboard/internal/core"
	"beans-dashboard/internal/metrics"

	"go.uber.org/zap"
)

// CycleRunner is satisfied by *core.Reconciler.
type CycleRunner interface {
	RunCycle(ctx context.Context, state *core.CycleState) (core.CycleReport, error)
}

// Poller drives a CycleRunner on a ticker. Each cycle gets a bounded
// deadline so a hung feed call can never stall the loop, and a cycle in
// flight when the context is cancelled is abandoned safely — every step
// inside a cycle is individually idempotent.
type Poller struct {
	runner   CycleRunner
	state    *core.CycleState
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
	metrics  *metrics.Set
}

func New(runner CycleRunner, state *core.CycleState, interval time.Duration, log *zap.Logger, m *metrics.Set) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{
		runner:   runner,
		state:    state,
		interval: interval,
		timeout:  interval * 2,
		log:      log,
		metrics:  m,
	}
}

// Run polls until ctx is cancelled. The first cycle fires immediately.
func (p *Poller) Run(ctx context.Context) {
	p.log.Info("poller started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopped")
			return
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	report, err := p.runner.RunCycle(cycleCtx, p.state)
	if p.metrics != nil {
		p.metrics.ObserveCycle(report, err)
	}
	if err != nil {
		// Degrade to stale data; the next tick retries.
		p.log.Warn("poll cycle failed", zap.Error(err))
		return
	}

	p.log.Info("poll cycle finished",
		zap.Int("fetched", report.Fetched),
		zap.Int("new", report.New),
		zap.Int("known", report.Known),
		zap.Int("failed", report.Failed),
		zap.Int("low_stock", len(report.LowStock)),
		zap.Duration("duration", report.Duration),
	)
}

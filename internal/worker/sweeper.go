// Package worker holds the background lifecycle sweeper that retires overdue
// open requests on a fixed cadence.
package worker

import (
	"context"
	"log/slog"
	"time"

	"bloodconnect/internal/metrics"
	"bloodconnect/internal/pkg/clock"
	"bloodconnect/internal/pkg/config"
	"bloodconnect/internal/usecase/commands"
)

type Sweeper struct {
	commands commands.RequestCommands
	clk      clock.Clock
	interval time.Duration
	metrics  *metrics.Metrics
}

func NewSweeper(cmds commands.RequestCommands, clk clock.Clock, cfg config.SweeperConfig, m *metrics.Metrics) *Sweeper {
	return &Sweeper{
		commands: cmds,
		clk:      clk,
		interval: cfg.Interval,
		metrics:  m,
	}
}

// Run blocks until ctx is cancelled, sweeping once per interval. Reads see
// overdue requests as expired regardless of the sweep, so a late or failed
// pass only delays persistence, never correctness.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	start := time.Now()
	expired, err := s.commands.ExpireDue(ctx, s.clk.Now())
	s.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	s.metrics.SweepRuns.Inc()

	if err != nil {
		slog.Error("lifecycle sweep failed", "expired", expired, "error", err.Error())
		return
	}
	if expired > 0 {
		slog.Info("lifecycle sweep completed", "expired", expired)
	}
}

//go:build unit

package worker_test

import (
	"context"
	"testing"
	"time"

	"bloodconnect/internal/metrics"
	"bloodconnect/internal/pkg/clock"
	"bloodconnect/internal/pkg/config"
	"bloodconnect/internal/pkg/errs"
	"bloodconnect/internal/worker"
	commandsmock "bloodconnect/tests/mock/commands"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newSweeper(t *testing.T, cmds *commandsmock.MockRequestCommands, clk clock.Clock, interval time.Duration) *worker.Sweeper {
	t.Helper()
	return worker.NewSweeper(
		cmds,
		clk,
		config.SweeperConfig{Interval: interval, Concurrency: 4, BatchSize: 500},
		metrics.New(prometheus.NewRegistry()),
	)
}

func TestRunOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	cmds := commandsmock.NewMockRequestCommands(ctrl)
	sweeper := newSweeper(t, cmds, clk, time.Minute)

	t.Run("sweeps with the clock's current time", func(t *testing.T) {
		cmds.EXPECT().ExpireDue(gomock.Any(), clk.Now()).Return(3, nil).Times(1)
		sweeper.RunOnce(context.Background())
	})

	t.Run("a failed sweep does not panic", func(t *testing.T) {
		cmds.EXPECT().ExpireDue(gomock.Any(), clk.Now()).Return(0, errs.ErrStorageUnavailable).Times(1)
		sweeper.RunOnce(context.Background())
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	cmds := commandsmock.NewMockRequestCommands(ctrl)
	cmds.EXPECT().ExpireDue(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()

	sweeper := newSweeper(t, cmds, clk, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(ctx)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "sweeper did not stop after cancellation")
	}
}

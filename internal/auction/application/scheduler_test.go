package application

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	runs     atomic.Int32
	inFlight atomic.Bool
	hold     time.Duration
}

func (s *countingSweeper) RunOnce(ctx context.Context) (SweepReport, error) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)
	s.runs.Add(1)
	time.Sleep(s.hold)
	return SweepReport{}, nil
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewSettlementScheduler(sweeper, 10*time.Millisecond)

	s.Start(context.Background())
	s.Start(context.Background()) // no second loop

	require.Eventually(t, func() bool { return sweeper.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := sweeper.runs.Load()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, after, sweeper.runs.Load())

	s.Stop() // idempotent
}

func TestScheduler_StopWaitsForInFlightSweep(t *testing.T) {
	sweeper := &countingSweeper{hold: 50 * time.Millisecond}
	s := NewSettlementScheduler(sweeper, time.Hour)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return sweeper.inFlight.Load() }, time.Second, time.Millisecond)

	s.Stop()
	require.False(t, sweeper.inFlight.Load())
	require.Equal(t, int32(1), sweeper.runs.Load())
}

func TestScheduler_ParentContextStopsLoop(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewSettlementScheduler(sweeper, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	s.Start(ctx)
	require.Eventually(t, func() bool { return sweeper.runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Stop()
}

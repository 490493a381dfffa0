package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func TestAfterFiresOnceWhenRunning(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, nil)
	s.Start()
	defer s.Stop()

	var fired atomic.Int32
	s.After(5*time.Second, func() { fired.Add(1) })
	require.Equal(t, 1, s.Pending())

	clock.Advance(4 * time.Second)
	require.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	clock.Advance(time.Second)
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, s.Pending())
}

func TestAfterDroppedWhileStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, nil)

	var fired atomic.Int32
	timer := s.After(time.Second, func() { fired.Add(1) })
	require.False(t, timer.Stop())

	clock.Advance(2 * time.Second)
	require.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestStopCancelsPendingTimers(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, nil)
	s.Start()

	var fired atomic.Int32
	s.After(time.Second, func() { fired.Add(1) })
	s.Stop()
	require.Equal(t, 0, s.Pending())

	clock.Advance(time.Minute)
	require.Never(t, func() bool { return fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestEveryRunsUntilStopped(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, nil)

	var runs atomic.Int32
	s.Every("refresh", 15*time.Second, true, func() { runs.Add(1) })
	s.Start()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(15 * time.Second)
	require.Eventually(t, func() bool { return runs.Load() == 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	require.False(t, s.Running())
	clock.Advance(time.Minute)
	require.Never(t, func() bool { return runs.Load() > 2 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestPanicInJobIsRecovered(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := New(clock, nil)
	s.Start()
	defer s.Stop()

	var after atomic.Bool
	s.After(time.Millisecond, func() { panic("boom") })
	s.After(2*time.Millisecond, func() { after.Store(true) })
	clock.Advance(time.Second)
	require.Eventually(t, after.Load, time.Second, 5*time.Millisecond)
}

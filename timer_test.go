package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func driveForTest(t *testing.T, r *Reactor) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Drive(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestTimerFires(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	timer := r.NewTimer(20 * time.Millisecond)
	select {
	case <-timer.C:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestTimerStopPreventsFire(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	timer := r.NewTimer(50 * time.Millisecond)
	require.True(t, timer.Stop())
	require.False(t, timer.Stop())

	select {
	case <-timer.C:
		t.Fatal("stopped timer fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestTimerResetReprograms(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	timer := r.NewTimer(500 * time.Millisecond)
	start := time.Now()
	require.True(t, timer.Reset(20 * time.Millisecond))

	select {
	case <-timer.C:
		require.Less(t, time.Since(start), 400*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("reset timer never fired")
	}
}

func TestTimerHeapOrdersByDeadline(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	now := time.Now()
	late := r.NewTimer(0)
	r.timerMu.Lock()
	r.timers[0].when = now.Add(time.Hour)
	r.timerMu.Unlock()
	_ = late

	early := r.NewTimer(0)
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	require.Equal(t, early.entry, r.timers[0])
}

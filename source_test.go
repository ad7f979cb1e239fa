package reactor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceRegisterObservesTick(t *testing.T) {
	src := &Source{raw: -1, key: 1}

	w := newWaker()
	tick, err := src.register(false, w)
	require.NoError(t, err)
	require.Equal(t, uint64(0), tick)
	require.Equal(t, uint64(0), src.observedTick(false))

	src.fire(false)
	require.Equal(t, uint64(1), src.observedTick(false))

	select {
	case <-w.ready:
	default:
		t.Fatal("waker was not woken by fire")
	}
}

func TestSourceFireOnlyWakesItsDirection(t *testing.T) {
	src := &Source{raw: -1, key: 1}

	rw := newWaker()
	ww := newWaker()
	_, err := src.register(false, rw)
	require.NoError(t, err)
	_, err = src.register(true, ww)
	require.NoError(t, err)

	src.fire(false)

	select {
	case <-rw.ready:
	default:
		t.Fatal("read waker not woken")
	}
	select {
	case <-ww.ready:
		t.Fatal("write waker woken by a read-direction fire")
	default:
	}
}

func TestSourceRegisterAfterCloseFails(t *testing.T) {
	src := &Source{raw: -1, key: 1}
	src.markClosed()

	_, err := src.register(false, newWaker())
	require.ErrorIs(t, err, ErrSourceClosed)
}

func TestSourceMarkClosedWakesStragglers(t *testing.T) {
	src := &Source{raw: -1, key: 1}
	w := newWaker()
	_, err := src.register(false, w)
	require.NoError(t, err)

	src.markClosed()

	select {
	case <-w.ready:
	default:
		t.Fatal("markClosed did not wake a registered waker")
	}
}

func TestSourceFireClearsWakerList(t *testing.T) {
	src := &Source{raw: -1, key: 1}
	w1 := newWaker()
	_, err := src.register(false, w1)
	require.NoError(t, err)

	src.fire(false)

	// A second fire with no new registrants must not panic or double-wake
	// an already-cleared list.
	require.NotPanics(t, func() { src.fire(false) })
	require.Equal(t, uint64(2), src.observedTick(false))
}

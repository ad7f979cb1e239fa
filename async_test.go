//go:build linux || darwin

package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAsyncReadableUnblocksOnWrite(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	pr, pw := testPipe(t)
	a, err := NewAsync(r, &pipeHandle{f: pr})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	readyErr := make(chan error, 1)
	go func() { readyErr <- a.Readable(ctx) }()

	time.Sleep(20 * time.Millisecond) // let Readable register before data lands
	_, err = pw.Write([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, <-readyErr)
}

func TestAsyncReadWithRetriesUntilData(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	pr, pw := testPipe(t)
	a, err := NewAsync(r, &pipeHandle{f: pr})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	result := make(chan int, 1)
	errc := make(chan error, 1)
	go func() {
		n, err := ReadWith(ctx, a, func(h *pipeHandle) (int, error) {
			buf := make([]byte, 8)
			n, err := h.f.Read(buf)
			if err != nil && isRetryable(err) {
				return 0, ErrWouldBlock
			}
			return n, err
		})
		result <- n
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	_, err = pw.Write([]byte("hello"))
	require.NoError(t, err)

	require.NoError(t, <-errc)
	require.Equal(t, 5, <-result)
}

func TestAsyncCloseWakesBlockedReadable(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	pr, _ := testPipe(t)
	a, err := NewAsync(r, &pipeHandle{f: pr})
	require.NoError(t, err)

	ctx := context.Background()
	readyErr := make(chan error, 1)
	go func() { readyErr <- a.Readable(ctx) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, a.Close())

	select {
	case err := <-readyErr:
		require.ErrorIs(t, err, ErrSourceClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wake blocked Readable")
	}
}

func TestAsyncReadableContextCancel(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	pr, _ := testPipe(t)
	a, err := NewAsync(r, &pipeHandle{f: pr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	readyErr := make(chan error, 1)
	go func() { readyErr <- a.Readable(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-readyErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not unblock Readable")
	}
}

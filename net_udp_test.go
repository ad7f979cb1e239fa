package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestUDPRoundtrip covers spec section 8's UDP roundtrip scenario: one
// socket sends a datagram to another, which echoes it back to the sender's
// observed address.
func TestUDPRoundtrip(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	a, err := ListenUDP(r, "udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	b, err := ListenUDP(r, "udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	echoDone := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		n, from, err := b.ReadFrom(ctx, buf)
		if err != nil {
			echoDone <- err
			return
		}
		_, err = b.WriteTo(ctx, buf[:n], from)
		echoDone <- err
	}()

	_, err = a.WriteTo(ctx, []byte("hi"), b.Get().LocalAddr())
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, _, err := a.ReadFrom(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, "hi", string(buf[:n]))

	require.NoError(t, <-echoDone)
}

package reactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTCPEcho covers spec section 8's TCP echo scenario: a listener accepts
// one connection, echoes back whatever it reads, and the dialing side
// observes its own bytes round-tripped through the reactor end to end.
func TestTCPEcho(t *testing.T) {
	r, err := New(WithIdleTimeout(10 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	driveForTest(t, r)

	ln, err := ListenTCP(r, "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	addr := ln.Get().LocalAddr().String()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		conn, err := ln.Accept(ctx)
		if err != nil {
			serverDone <- err
			return
		}
		defer conn.Close()

		buf := make([]byte, 64)
		n, err := conn.Read(ctx, buf)
		if err != nil {
			serverDone <- err
			return
		}
		_, err = conn.Write(ctx, buf[:n])
		serverDone <- err
	}()

	client, err := DialTCP(ctx, r, "tcp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	_, err = client.Write(ctx, []byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := client.Read(ctx, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))

	require.NoError(t, <-serverDone)
}

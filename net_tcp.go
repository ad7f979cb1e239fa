package reactor

import (
	"context"
	"net"

	"github.com/joeycumines/go-reactor/internal/rawsock"
)

// rawHandle is the common Handle implementation shared by every net_*.go
// adapter: a reactor-owned file descriptor (dup'd out of a net.Listener/
// net.PacketConn, or created directly by dialing or accepting) plus its
// local/remote addresses, recorded here since the fd has no Go-level
// wrapper to ask.
type rawHandle struct {
	fd         int
	localAddr  net.Addr
	remoteAddr net.Addr
}

func (h *rawHandle) Fd() int      { return h.fd }
func (h *rawHandle) Close() error { return rawsock.Close(h.fd) }

// LocalAddr returns the address the handle was bound to.
func (h *rawHandle) LocalAddr() net.Addr { return h.localAddr }

// RemoteAddr returns the peer address, or nil for listeners and unconnected
// datagram sockets.
func (h *rawHandle) RemoteAddr() net.Addr { return h.remoteAddr }

// TCPStream is a TCP connection driven by the reactor. Dialing builds the
// socket and issues connect(2) directly (internal/rawsock); accepting dups
// the fd out of a net.Listener (ListenTCP uses net.Listen for setup, since
// binding and listening carry no connect-completion race to replicate).
// Either way, every subsequent read/write goes through the reactor's own
// Poller rather than Go's runtime netpoller.
type TCPStream struct {
	*Async[*rawHandle]
}

// DialTCP implements the connect() sequence from spec.md section 6: a
// non-blocking socket is created and connect(2) is issued directly (not via
// net.Dialer, whose own internal netpoller would race the reactor's
// Poller for the same fd); an EINPROGRESS result is resolved by waiting for
// writability through the reactor and then reading SO_ERROR.
func DialTCP(ctx context.Context, r *Reactor, network, addr string) (*TCPStream, error) {
	fd, raddr, err := rawsock.DialTCP(network, addr)
	if err != nil {
		return nil, err
	}
	h := &rawHandle{fd: fd, remoteAddr: raddr}
	a, err := NewAsync(r, h)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	if err := finishConnect(ctx, a); err != nil {
		_ = a.Close()
		return nil, err
	}
	_ = rawsock.SetNoDelay(fd, true)
	if local, err := rawsock.Getsockname(fd); err == nil {
		h.localAddr = local
	}
	return &TCPStream{Async: a}, nil
}

// finishConnect waits for a.Get()'s fd to become writable, the non-blocking
// connect() completion signal, then reads SO_ERROR to discover whether the
// connection actually succeeded or failed. Shared by DialTCP and DialUnix.
func finishConnect(ctx context.Context, a *Async[*rawHandle]) error {
	if err := a.Writable(ctx); err != nil {
		return err
	}
	return rawsock.SocketError(a.Get().fd)
}

// Read performs one non-blocking read, suspending on readability via the
// reactor until data arrives, the peer closes, or ctx is done.
func (s *TCPStream) Read(ctx context.Context, buf []byte) (int, error) {
	return ReadWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.Read(h.fd, buf)
	})
}

// Write performs one non-blocking write, suspending on writability via the
// reactor until the send buffer has room, or ctx is done.
func (s *TCPStream) Write(ctx context.Context, buf []byte) (int, error) {
	return WriteWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.Write(h.fd, buf)
	})
}

// TCPListener accepts TCP connections through the reactor.
type TCPListener struct {
	*Async[*rawHandle]
}

// ListenTCP binds addr and wraps the resulting listener for r.
func ListenTCP(r *Reactor, network, addr string) (*TCPListener, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, err
	}
	local := ln.Addr()
	fd, err := rawsock.DupListener(ln)
	if err != nil {
		return nil, err
	}
	h := &rawHandle{fd: fd, localAddr: local}
	a, err := NewAsync(r, h)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	return &TCPListener{Async: a}, nil
}

// Accept blocks until a connection arrives, ctx is done, or a non-WouldBlock
// error occurs on the listening socket.
func (l *TCPListener) Accept(ctx context.Context) (*TCPStream, error) {
	for {
		connFD, peer, err := rawsock.Accept(l.Get().fd)
		if err == nil {
			h := &rawHandle{fd: connFD, localAddr: l.Get().localAddr, remoteAddr: peer}
			_ = rawsock.SetNoDelay(connFD, true)
			a, err := NewAsync(l.Reactor(), h)
			if err != nil {
				_ = h.Close()
				return nil, err
			}
			return &TCPStream{Async: a}, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		if err := l.Readable(ctx); err != nil {
			return nil, err
		}
	}
}

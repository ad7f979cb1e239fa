package reactor

import (
	"context"
	"net"

	"github.com/joeycumines/go-reactor/internal/rawsock"
)

// UnixStream is a connected AF_UNIX stream socket driven by the reactor.
type UnixStream struct {
	*Async[*rawHandle]
}

// DialUnix connects to a Unix domain socket path and wraps the resulting
// connection for r, following the same raw non-blocking connect()/SO_ERROR
// sequence as DialTCP (see net_tcp.go's finishConnect).
func DialUnix(ctx context.Context, r *Reactor, addr string) (*UnixStream, error) {
	fd, raddr, err := rawsock.DialUnixStream(addr)
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
	if local, err := rawsock.Getsockname(fd); err == nil {
		h.localAddr = local
	}
	return &UnixStream{Async: a}, nil
}

// Read performs one non-blocking read, suspending on readability via the
// reactor until data arrives, the peer closes, or ctx is done.
func (s *UnixStream) Read(ctx context.Context, buf []byte) (int, error) {
	return ReadWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.Read(h.fd, buf)
	})
}

// Write performs one non-blocking write, suspending on writability via the
// reactor until the send buffer has room, or ctx is done.
func (s *UnixStream) Write(ctx context.Context, buf []byte) (int, error) {
	return WriteWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.Write(h.fd, buf)
	})
}

// UnixListener accepts AF_UNIX stream connections through the reactor.
type UnixListener struct {
	*Async[*rawHandle]
}

// ListenUnix binds a Unix domain socket path and wraps the resulting
// listener for r.
func ListenUnix(r *Reactor, addr string) (*UnixListener, error) {
	ln, err := net.Listen("unix", addr)
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
	return &UnixListener{Async: a}, nil
}

// Accept blocks until a connection arrives, ctx is done, or a non-WouldBlock
// error occurs on the listening socket.
func (l *UnixListener) Accept(ctx context.Context) (*UnixStream, error) {
	for {
		connFD, peer, err := rawsock.Accept(l.Get().fd)
		if err == nil {
			h := &rawHandle{fd: connFD, localAddr: l.Get().localAddr, remoteAddr: peer}
			a, err := NewAsync(l.Reactor(), h)
			if err != nil {
				_ = h.Close()
				return nil, err
			}
			return &UnixStream{Async: a}, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		if err := l.Readable(ctx); err != nil {
			return nil, err
		}
	}
}

// UnixDatagram is a connectionless AF_UNIX datagram socket, the Unix-domain
// counterpart of UDPSocket.
type UnixDatagram struct {
	*Async[*rawHandle]
}

// ListenUnixgram binds a Unix domain datagram socket path and wraps it for
// r.
func ListenUnixgram(r *Reactor, addr string) (*UnixDatagram, error) {
	uaddr, err := net.ResolveUnixAddr("unixgram", addr)
	if err != nil {
		return nil, err
	}
	pc, err := net.ListenUnixgram("unixgram", uaddr)
	if err != nil {
		return nil, err
	}
	local := pc.LocalAddr()
	fd, err := rawsock.DupPacketConn(pc)
	if err != nil {
		return nil, err
	}
	h := &rawHandle{fd: fd, localAddr: local}
	a, err := NewAsync(r, h)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	return &UnixDatagram{Async: a}, nil
}

// ReadFrom performs one non-blocking recvfrom attempt, suspending on
// readability via the reactor between WouldBlock results.
func (s *UnixDatagram) ReadFrom(ctx context.Context, buf []byte) (int, net.Addr, error) {
	type result struct {
		n    int
		addr net.Addr
	}
	r, err := ReadWith(ctx, s.Async, func(h *rawHandle) (result, error) {
		n, addr, err := rawsock.ReadFrom(h.fd, buf)
		return result{n: n, addr: addr}, err
	})
	return r.n, r.addr, err
}

// WriteTo performs one non-blocking sendto attempt, suspending on
// writability via the reactor between WouldBlock results.
func (s *UnixDatagram) WriteTo(ctx context.Context, buf []byte, addr net.Addr) (int, error) {
	return WriteWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.WriteTo(h.fd, buf, addr)
	})
}

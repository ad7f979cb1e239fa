package reactor

import (
	"context"
	"net"

	"github.com/joeycumines/go-reactor/internal/rawsock"
)

// UDPSocket is a connectionless datagram socket driven by the reactor.
type UDPSocket struct {
	*Async[*rawHandle]
}

// ListenUDP binds addr and wraps the resulting socket for r.
func ListenUDP(r *Reactor, network, addr string) (*UDPSocket, error) {
	pc, err := net.ListenPacket(network, addr)
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
	return &UDPSocket{Async: a}, nil
}

// ReadFrom performs one non-blocking recvfrom attempt, suspending on
// readability via the reactor between WouldBlock results.
func (s *UDPSocket) ReadFrom(ctx context.Context, buf []byte) (int, net.Addr, error) {
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
func (s *UDPSocket) WriteTo(ctx context.Context, buf []byte, addr net.Addr) (int, error) {
	return WriteWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.WriteTo(h.fd, buf, addr)
	})
}

// Connect associates addr as the socket's fixed peer: the kernel filters
// incoming datagrams to that peer and Send/Recv may be used in place of
// WriteTo/ReadFrom. Unlike DialTCP, this is a single non-blocking
// syscall with no EINPROGRESS/SO_ERROR handshake, since connect() on a
// datagram socket only records the peer rather than negotiating one.
func (s *UDPSocket) Connect(addr net.Addr) error {
	h := s.Get()
	if err := rawsock.Connect(h.fd, addr); err != nil {
		return err
	}
	h.remoteAddr = addr
	return nil
}

// Send writes buf to the socket's connected peer (see Connect), suspending
// on writability via the reactor between WouldBlock results.
func (s *UDPSocket) Send(ctx context.Context, buf []byte) (int, error) {
	return WriteWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.Write(h.fd, buf)
	})
}

// Recv reads from the socket's connected peer (see Connect), suspending on
// readability via the reactor between WouldBlock results.
func (s *UDPSocket) Recv(ctx context.Context, buf []byte) (int, error) {
	return ReadWith(ctx, s.Async, func(h *rawHandle) (int, error) {
		return rawsock.Read(h.fd, buf)
	})
}

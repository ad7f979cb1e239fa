// Package rawsock dups the file descriptor out of a net.Listener/
// net.PacketConn and hands ownership to the caller, so reactor's own Poller
// can register and drive it directly instead of racing Go's
// runtime-internal netpoller for the same descriptor.
//
// Grounded on the dupconn helper in the RTradeLtd-gaio/aio_generic.go
// reference (SyscallConn().Control(func(fd uintptr){ ... }) to safely read
// the fd, then duplicate it before closing the original).
package rawsock

import (
	"errors"
	"net"
	"syscall"
)

// ErrNoSyscallConn is returned when a value does not implement syscall.Conn
// (e.g. an in-memory pipe), and so has no OS descriptor to dup.
var ErrNoSyscallConn = errors.New("rawsock: type does not implement syscall.Conn")

// DupListener duplicates the file descriptor backing ln and returns it. The
// original ln is closed on success, since the dup is now the sole owner; on
// failure ln is left untouched for the caller to close.
func DupListener(ln net.Listener) (fd int, err error) {
	fd, err = dup(ln)
	if err != nil {
		return -1, err
	}
	_ = ln.Close()
	return fd, nil
}

// DupPacketConn is DupListener's net.PacketConn counterpart, used for UDP
// sockets, which are not net.Conn since they have no fixed peer.
func DupPacketConn(pc net.PacketConn) (fd int, err error) {
	fd, err = dup(pc)
	if err != nil {
		return -1, err
	}
	_ = pc.Close()
	return fd, nil
}

func dup(v any) (int, error) {
	sc, ok := v.(syscall.Conn)
	if !ok {
		return -1, ErrNoSyscallConn
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	var dupErr error
	if err := rc.Control(func(raw uintptr) {
		fd, dupErr = dupFD(int(raw))
	}); err != nil {
		return -1, err
	}
	if dupErr != nil {
		return -1, dupErr
	}
	return fd, nil
}

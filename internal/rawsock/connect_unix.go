//go:build linux || darwin

package rawsock

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// isConnectInProgress reports whether err is the non-blocking connect(2)
// "still working on it" status. Separate from the reactor package's own
// IsConnectionInProgress (errors_unix.go) since this package must not import
// its parent to avoid a cycle.
func isConnectInProgress(err error) bool {
	return errors.Is(err, unix.EINPROGRESS) || errors.Is(err, unix.EALREADY)
}

// DialTCP creates a non-blocking TCP socket and starts connecting it to
// addr, returning as soon as connect(2) reports EINPROGRESS (or completes
// immediately). The caller must wait for the fd to become writable, then
// call SocketError to discover whether the connection actually succeeded,
// per spec.md section 6's connect() note.
func DialTCP(network, addr string) (fd int, raddr net.Addr, err error) {
	ra, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		return -1, nil, err
	}
	sa, domain, err := tcpAddrToSockaddr(ra)
	if err != nil {
		return -1, nil, err
	}
	return connect(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP, sa, ra)
}

// DialUnixStream is DialTCP's AF_UNIX counterpart.
func DialUnixStream(addr string) (fd int, raddr net.Addr, err error) {
	sa := &unix.SockaddrUnix{Name: addr}
	return connect(unix.AF_UNIX, unix.SOCK_STREAM, 0, sa, &net.UnixAddr{Name: addr, Net: "unix"})
}

func connect(domain, typ, proto int, sa unix.Sockaddr, raddr net.Addr) (fd int, _ net.Addr, err error) {
	fd, err = unix.Socket(domain, typ, proto)
	if err != nil {
		return -1, nil, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, nil, err
	}
	if err := unix.Connect(fd, sa); err != nil && !isConnectInProgress(err) {
		_ = unix.Close(fd)
		return -1, nil, err
	}
	return fd, raddr, nil
}

func tcpAddrToSockaddr(a *net.TCPAddr) (unix.Sockaddr, int, error) {
	if ip4 := a.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		copy(sa.Addr[:], ip4)
		return sa, unix.AF_INET, nil
	}
	sa := &unix.SockaddrInet6{Port: a.Port}
	copy(sa.Addr[:], a.IP.To16())
	return sa, unix.AF_INET6, nil
}

// Getsockname returns the local address fd is bound to.
func Getsockname(fd int) (net.Addr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil, err
	}
	return sockaddrToAddr(sa), nil
}

//go:build windows

package rawsock

import (
	"net"

	"golang.org/x/sys/windows"
)

// DialTCP creates a TCP socket and connects it to addr. Unlike DialTCP on
// Unix, golang.org/x/sys/windows exposes no portable non-blocking
// connect/ioctlsocket wrapper the EINPROGRESS dance relies on, so (like
// AcceptEx in accept_windows.go) this performs one blocking connect(2) call
// rather than suspending through the reactor's readiness polling.
func DialTCP(network, addr string) (fd int, raddr net.Addr, err error) {
	ra, err := net.ResolveTCPAddr(network, addr)
	if err != nil {
		return -1, nil, err
	}
	sa, domain, err := tcpAddrToSockaddr(ra)
	if err != nil {
		return -1, nil, err
	}
	return connect(domain, windows.SOCK_STREAM, windows.IPPROTO_TCP, sa, ra)
}

// DialUnixStream is DialTCP's AF_UNIX counterpart.
func DialUnixStream(addr string) (fd int, raddr net.Addr, err error) {
	sa := &windows.SockaddrUnix{Name: addr}
	return connect(windows.AF_UNIX, windows.SOCK_STREAM, 0, sa, &net.UnixAddr{Name: addr, Net: "unix"})
}

func connect(domain, typ, proto int, sa windows.Sockaddr, raddr net.Addr) (fd int, _ net.Addr, err error) {
	h, err := windows.Socket(domain, typ, proto)
	if err != nil {
		return -1, nil, err
	}
	if err := windows.Connect(h, sa); err != nil {
		_ = windows.Closesocket(h)
		return -1, nil, err
	}
	return int(h), raddr, nil
}

func tcpAddrToSockaddr(a *net.TCPAddr) (windows.Sockaddr, int, error) {
	if ip4 := a.IP.To4(); ip4 != nil {
		sa := &windows.SockaddrInet4{Port: a.Port}
		copy(sa.Addr[:], ip4)
		return sa, windows.AF_INET, nil
	}
	sa := &windows.SockaddrInet6{Port: a.Port}
	copy(sa.Addr[:], a.IP.To16())
	return sa, windows.AF_INET6, nil
}

// Getsockname returns the local address fd is bound to.
func Getsockname(fd int) (net.Addr, error) {
	sa, err := windows.Getsockname(windows.Handle(fd))
	if err != nil {
		return nil, err
	}
	return winSockaddrToAddr(sa), nil
}

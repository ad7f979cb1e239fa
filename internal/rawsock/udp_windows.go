//go:build windows

package rawsock

import (
	"fmt"
	"net"

	"golang.org/x/sys/windows"
)

// ReadFrom performs one non-blocking recvfrom attempt on fd.
func ReadFrom(fd int, buf []byte) (int, net.Addr, error) {
	n, sa, err := windows.Recvfrom(windows.Handle(fd), buf, 0)
	if err != nil {
		return n, nil, err
	}
	return n, winSockaddrToAddr(sa), nil
}

// WriteTo performs one non-blocking sendto attempt on fd.
func WriteTo(fd int, buf []byte, addr net.Addr) (int, error) {
	sa, err := addrToSockaddr(addr)
	if err != nil {
		return 0, err
	}
	if err := windows.Sendto(windows.Handle(fd), buf, 0, sa); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Connect associates addr as fd's default peer, Unix connect's Windows
// counterpart (see udp_unix.go's Connect).
func Connect(fd int, addr net.Addr) error {
	sa, err := addrToSockaddr(addr)
	if err != nil {
		return err
	}
	return windows.Connect(windows.Handle(fd), sa)
}

func winSockaddrToAddr(sa windows.Sockaddr) net.Addr {
	switch v := sa.(type) {
	case *windows.SockaddrInet4:
		return &net.UDPAddr{IP: append([]byte(nil), v.Addr[:]...), Port: v.Port}
	case *windows.SockaddrInet6:
		return &net.UDPAddr{IP: append([]byte(nil), v.Addr[:]...), Port: v.Port}
	default:
		return nil
	}
}

func addrToSockaddr(addr net.Addr) (windows.Sockaddr, error) {
	switch v := addr.(type) {
	case *net.UDPAddr:
		if ip4 := v.IP.To4(); ip4 != nil {
			sa := &windows.SockaddrInet4{Port: v.Port}
			copy(sa.Addr[:], ip4)
			return sa, nil
		}
		sa := &windows.SockaddrInet6{Port: v.Port}
		copy(sa.Addr[:], v.IP.To16())
		return sa, nil
	default:
		return nil, fmt.Errorf("rawsock: unsupported address type %T", addr)
	}
}

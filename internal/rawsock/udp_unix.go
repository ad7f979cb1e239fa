//go:build linux || darwin

package rawsock

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ReadFrom performs one non-blocking recvfrom attempt on fd.
func ReadFrom(fd int, buf []byte) (int, net.Addr, error) {
	n, sa, err := unix.Recvfrom(fd, buf, 0)
	if err != nil {
		return n, nil, err
	}
	return n, sockaddrToAddr(sa), nil
}

// WriteTo performs one non-blocking sendto attempt on fd.
func WriteTo(fd int, buf []byte, addr net.Addr) (int, error) {
	sa, err := addrToSockaddr(addr)
	if err != nil {
		return 0, err
	}
	if err := unix.Sendto(fd, buf, 0, sa); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Connect associates addr as fd's default peer: a connect(2) call on a
// datagram socket filters incoming datagrams to that peer and lets
// subsequent Read/Write calls omit the destination, unlike ReadFrom/WriteTo.
func Connect(fd int, addr net.Addr) error {
	sa, err := addrToSockaddr(addr)
	if err != nil {
		return err
	}
	return unix.Connect(fd, sa)
}

func addrToSockaddr(addr net.Addr) (unix.Sockaddr, error) {
	switch v := addr.(type) {
	case *net.UDPAddr:
		if ip4 := v.IP.To4(); ip4 != nil {
			sa := &unix.SockaddrInet4{Port: v.Port}
			copy(sa.Addr[:], ip4)
			return sa, nil
		}
		sa := &unix.SockaddrInet6{Port: v.Port}
		copy(sa.Addr[:], v.IP.To16())
		return sa, nil
	case *net.TCPAddr:
		if ip4 := v.IP.To4(); ip4 != nil {
			sa := &unix.SockaddrInet4{Port: v.Port}
			copy(sa.Addr[:], ip4)
			return sa, nil
		}
		sa := &unix.SockaddrInet6{Port: v.Port}
		copy(sa.Addr[:], v.IP.To16())
		return sa, nil
	case *net.UnixAddr:
		return &unix.SockaddrUnix{Name: v.Name}, nil
	default:
		return nil, fmt.Errorf("rawsock: unsupported address type %T", addr)
	}
}

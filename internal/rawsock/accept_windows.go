//go:build windows

package rawsock

import (
	"net"
	"unsafe"

	"golang.org/x/sys/windows"
)

// sockAddrBufSize is sized per AcceptEx's documented requirement: each side
// needs sizeof(sockaddr_in6) + 16 bytes of padding; 128 is generous for both
// IPv4 and IPv6.
const sockAddrBufSize = 128

// Accept performs one AcceptEx call on the listening socket fd, blocking
// the calling goroutine until a connection arrives or the operation fails.
// Unlike the Unix accept(2) path, this does not participate in the
// reactor's readiness polling: AcceptEx is itself a single overlapped
// operation rather than a readiness signal, so TCPListener.Accept's
// surrounding retry/suspend loop effectively degrades to one blocking
// syscall per accepted connection on Windows. Limitation, not a bug: wiring
// AcceptEx into the zero-byte-readiness scheme poller_windows.go uses for
// ordinary reads/writes would require a second per-listener overlapped slot
// with its own bookkeeping, out of scope here.
func Accept(fd int) (int, net.Addr, error) {
	ls := windows.Handle(fd)
	as, err := windows.WSASocket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP, nil, 0, windows.WSA_FLAG_OVERLAPPED)
	if err != nil {
		return -1, nil, err
	}

	var buf [2 * sockAddrBufSize]byte
	var recvd uint32
	var ov windows.Overlapped
	err = windows.AcceptEx(ls, as, &buf[0], 0, sockAddrBufSize, sockAddrBufSize, &recvd, &ov)
	if err != nil && err != windows.ERROR_IO_PENDING {
		_ = windows.Closesocket(as)
		return -1, nil, err
	}
	if err == windows.ERROR_IO_PENDING {
		if err := windows.GetOverlappedResult(ls, &ov, &recvd, true); err != nil {
			_ = windows.Closesocket(as)
			return -1, nil, err
		}
	}

	var lrsa, rrsa *windows.RawSockaddrAny
	var lrsalen, rrsalen int32
	windows.GetAcceptExSockaddrs(&buf[0], 0, sockAddrBufSize, sockAddrBufSize, &lrsa, &lrsalen, &rrsa, &rrsalen)

	peer := rawSockaddrToAddr(rrsa)
	return int(as), peer, nil
}

func rawSockaddrToAddr(sa *windows.RawSockaddrAny) net.Addr {
	if sa == nil {
		return nil
	}
	switch sa.Addr.Family {
	case windows.AF_INET:
		p := (*windows.RawSockaddrInet4)(unsafe.Pointer(sa))
		return &net.TCPAddr{IP: append([]byte(nil), p.Addr[:]...), Port: int(p.Port>>8 | p.Port<<8)}
	case windows.AF_INET6:
		p := (*windows.RawSockaddrInet6)(unsafe.Pointer(sa))
		return &net.TCPAddr{IP: append([]byte(nil), p.Addr[:]...), Port: int(p.Port>>8 | p.Port<<8)}
	default:
		return nil
	}
}

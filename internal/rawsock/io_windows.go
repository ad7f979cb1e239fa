//go:build windows

package rawsock

import "golang.org/x/sys/windows"

// Read performs one non-blocking read attempt on fd.
func Read(fd int, buf []byte) (int, error) {
	n, _, err := windows.Recvfrom(windows.Handle(fd), buf, 0)
	return n, err
}

// Write performs one non-blocking write attempt on fd.
func Write(fd int, buf []byte) (int, error) {
	err := windows.Sendto(windows.Handle(fd), buf, 0, nil)
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Close closes fd.
func Close(fd int) error {
	return windows.Closesocket(windows.Handle(fd))
}

// SetNoDelay toggles TCP_NODELAY on fd.
func SetNoDelay(fd int, noDelay bool) error {
	v := 0
	if noDelay {
		v = 1
	}
	return windows.SetsockoptInt(windows.Handle(fd), windows.IPPROTO_TCP, windows.TCP_NODELAY, v)
}

// SocketError reads and clears SO_ERROR on fd, the standard way to discover
// whether a non-blocking connect that returned WSAEWOULDBLOCK ultimately
// succeeded or failed.
func SocketError(fd int) error {
	errno, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return windows.Errno(errno)
	}
	return nil
}

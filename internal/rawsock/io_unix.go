//go:build linux || darwin

package rawsock

import "golang.org/x/sys/unix"

// Read performs one non-blocking read attempt on fd.
func Read(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// Write performs one non-blocking write attempt on fd.
func Write(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// Close closes fd.
func Close(fd int) error {
	return unix.Close(fd)
}

// SetNoDelay toggles TCP_NODELAY on fd.
func SetNoDelay(fd int, noDelay bool) error {
	v := 0
	if noDelay {
		v = 1
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
}

// SocketError reads and clears SO_ERROR on fd, the standard way to discover
// whether a non-blocking connect() that returned EINPROGRESS ultimately
// succeeded or failed.
func SocketError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

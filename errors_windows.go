//go:build windows

package reactor

import (
	"errors"

	"golang.org/x/sys/windows"
)

// IsWouldBlock reports whether err indicates the non-blocking syscall would
// have blocked.
func IsWouldBlock(err error) bool {
	return errors.Is(err, windows.WSAEWOULDBLOCK)
}

// IsInterrupted reports whether err is a signal-interrupted syscall
// equivalent on Windows.
func IsInterrupted(err error) bool {
	return errors.Is(err, windows.WSAEINTR)
}

// IsConnectionInProgress reports whether err is Windows' non-blocking
// ConnectEx equivalent of EINPROGRESS.
func IsConnectionInProgress(err error) bool {
	return errors.Is(err, windows.WSAEWOULDBLOCK) || errors.Is(err, windows.WSAEALREADY)
}

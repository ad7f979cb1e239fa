//go:build linux || darwin

package reactor

import (
	"errors"
	"syscall"
)

// IsWouldBlock reports whether err indicates the non-blocking syscall would
// have blocked. Never surfaced to callers of ReadWith/WriteWith; they use it
// internally to decide whether to suspend.
func IsWouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}

// IsInterrupted reports whether err is a signal-interrupted syscall.
func IsInterrupted(err error) bool {
	return errors.Is(err, syscall.EINTR)
}

// IsConnectionInProgress reports whether err is the platform's "connection in
// progress" status raised by a non-blocking connect(2).
func IsConnectionInProgress(err error) bool {
	return errors.Is(err, syscall.EINPROGRESS) || errors.Is(err, syscall.EALREADY)
}

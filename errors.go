package reactor

import (
	"errors"
	"fmt"
)

// ErrReactorClosed is returned by Drive once the reactor's driver goroutine
// has been stopped via Shutdown.
var ErrReactorClosed = errors.New("reactor: closed")

// ErrSourceClosed is returned by Source operations attempted on a handle
// whose source has already been removed from the reactor.
var ErrSourceClosed = errors.New("reactor: source closed")

// PollErrorKind classifies the four kinds of I/O error the core distinguishes,
// per spec section 7.
type PollErrorKind int

const (
	// KindOther is any error other than the three below; propagated unchanged.
	KindOther PollErrorKind = iota
	// KindWouldBlock is never surfaced to callers; read_with/write_with always
	// absorb it into a suspension.
	KindWouldBlock
	// KindInterrupted marks a signal-interrupted syscall; retried transparently
	// inside the poller's Wait implementation.
	KindInterrupted
	// KindConnectionInProgress marks the platform's "connection in progress"
	// status; absorbed exactly once by Dial and converted to a writability await.
	KindConnectionInProgress
)

// PollError wraps a raw syscall error with its classified Kind, in the style
// of the teacher's own cause-wrapping error types (TypeError, RangeError,
// TimeoutError): a thin struct carrying the original error as Cause, with
// Unwrap support for errors.Is/errors.As.
type PollError struct {
	Op    string
	Kind  PollErrorKind
	Cause error
}

func (e *PollError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("reactor: %v", e.Cause)
	}
	return fmt.Sprintf("reactor: %s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/errors.As matching.
func (e *PollError) Unwrap() error {
	return e.Cause
}

// classify inspects err for the syscall.Errno values the core cares about.
func classify(err error) PollErrorKind {
	switch {
	case err == nil:
		return KindOther
	case IsWouldBlock(err):
		return KindWouldBlock
	case IsInterrupted(err):
		return KindInterrupted
	case IsConnectionInProgress(err):
		return KindConnectionInProgress
	default:
		return KindOther
	}
}

// wrapPollError classifies err and wraps it into a *PollError carrying op
// context, unless err is nil.
func wrapPollError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PollError{Op: op, Kind: classify(err), Cause: err}
}

// IsWouldBlock, IsInterrupted and IsConnectionInProgress are implemented
// per-platform in errors_unix.go / errors_windows.go: the underlying errno
// values and which syscall.Errno type they compare against differ between
// Unix's EAGAIN/EINTR/EINPROGRESS and Windows' WSAEWOULDBLOCK equivalents.

//go:build darwin

package reactor

import "golang.org/x/sys/unix"

// kqueueWakeNotifier implements the self-wake mechanism required by spec
// section 4.1's notify(), grounded on the teacher's wakeup_darwin.go
// self-pipe pair: a non-blocking pipe registered with the same kqueue
// instance under the reserved wakeKey identifier (via EVFILT_READ on the
// read end), drained immediately inside Wait and never surfaced as a user
// Event. kqueue has no eventfd equivalent, so a pipe is used here exactly as
// the teacher does, unlike notify_linux.go's eventfd.
type kqueueWakeNotifier struct {
	readFD  int
	writeFD int
}

// wakeKey is the reactor key reserved for the wake pipe; real Source keys
// are allocated starting above this value (see reactor.go).
const wakeKey uint64 = 0

func newKqueueWakeNotifier(kq int) (*kqueueWakeNotifier, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, wrapPollError("pipe2", err)
	}
	ev := kevent(fds[0], unix.EVFILT_READ, unix.EV_ADD, wakeKey)
	if _, err := unix.Kevent(kq, []unix.Kevent_t{ev}, nil, nil); err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return nil, wrapPollError("kevent(add wake)", err)
	}
	return &kqueueWakeNotifier{readFD: fds[0], writeFD: fds[1]}, nil
}

func (w *kqueueWakeNotifier) signal() error {
	var buf [1]byte
	_, err := unix.Write(w.writeFD, buf[:])
	if err != nil && !IsWouldBlock(err) {
		return wrapPollError("wake pipe write", err)
	}
	return nil
}

func (w *kqueueWakeNotifier) drain() {
	var buf [64]byte
	for {
		if _, err := unix.Read(w.readFD, buf[:]); err != nil {
			return
		}
	}
}

func (w *kqueueWakeNotifier) close() error {
	_ = unix.Close(w.writeFD)
	return unix.Close(w.readFD)
}

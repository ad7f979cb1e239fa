//go:build linux

package reactor

import "golang.org/x/sys/unix"

// wakeNotifier implements the self-wake mechanism required by spec section
// 4.1's notify(), grounded on the teacher's createWakeFd/drainWakeUpPipe
// pair in wakeup_linux.go: an eventfd registered with the same epoll
// instance under a reserved key (wakeKey), armed level-triggered for
// EPOLLIN since every wake is drained immediately inside Wait and never
// surfaces as a user Event.
type wakeNotifier struct {
	fd int
}

// wakeKey is the reactor key reserved for the wake eventfd; real Source keys
// are allocated starting above this value (see reactor.go).
const wakeKey uint64 = 0

func newWakeNotifier(epfd int) (*wakeNotifier, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, wrapPollError("eventfd", err)
	}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN}
	packEpollKey(ev, wakeKey)
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		_ = unix.Close(fd)
		return nil, wrapPollError("epoll_ctl(add wake)", err)
	}
	return &wakeNotifier{fd: fd}, nil
}

func (w *wakeNotifier) signal() error {
	var buf [8]byte
	buf[7] = 1
	_, err := unix.Write(w.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return wrapPollError("eventfd write", err)
	}
	return nil
}

func (w *wakeNotifier) drain() {
	var buf [8]byte
	for {
		if _, err := unix.Read(w.fd, buf[:]); err != nil {
			return
		}
	}
}

func (w *wakeNotifier) close() error {
	return unix.Close(w.fd)
}

//go:build darwin

package reactor

import (
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// kqueuePoller implements Poller using kqueue with EV_ONESHOT, grounded on
// the teacher's FastPoller (poller_darwin.go): same kqueue/kevent shape, but
// EV_ONESHOT replaces the teacher's EV_ADD|EV_ENABLE-without-oneshot
// registration, since spec section 4.1 requires one-shot rearm as a
// load-bearing property. The reactor key travels in Kevent_t.Udata instead
// of the teacher's direct fd-indexed dispatch, since this reactor serves
// waker lists rather than invoking a stored callback per fd.
type kqueuePoller struct {
	kq   int
	wake *kqueueWakeNotifier
}

func newPoller() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, wrapPollError("kqueue", err)
	}
	unix.CloseOnExec(kq)
	wake, err := newKqueueWakeNotifier(kq)
	if err != nil {
		_ = unix.Close(kq)
		return nil, err
	}
	return &kqueuePoller{kq: kq, wake: wake}, nil
}

func (p *kqueuePoller) Insert(raw int) error {
	return unix.SetNonblock(raw, true)
}

func (p *kqueuePoller) Interest(raw int, key uint64, readable, writable bool) error {
	var changes []unix.Kevent_t
	if readable {
		changes = append(changes, kevent(raw, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ONESHOT, key))
	}
	if writable {
		changes = append(changes, kevent(raw, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ONESHOT, key))
	}
	if len(changes) == 0 {
		return nil
	}
	if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
		return wrapPollError("kevent(arm)", err)
	}
	return nil
}

func (p *kqueuePoller) Remove(raw int) error {
	changes := []unix.Kevent_t{
		kevent(raw, unix.EVFILT_READ, unix.EV_DELETE, 0),
		kevent(raw, unix.EVFILT_WRITE, unix.EV_DELETE, 0),
	}
	// Deleting a filter that was never added returns ENOENT; harmless, since
	// one-shot interest is disarmed (and thus already implicitly deleted)
	// for whichever direction last fired.
	_, _ = unix.Kevent(p.kq, changes, nil, nil)
	return nil
}

func (p *kqueuePoller) Wait(events []Event, timeout time.Duration) (int, error) {
	raw := make([]unix.Kevent_t, len(events))
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}

	var n int
	for {
		var err error
		n, err = unix.Kevent(p.kq, nil, raw, ts)
		if err != nil {
			if IsInterrupted(err) {
				continue
			}
			return 0, wrapPollError("kevent(wait)", err)
		}
		break
	}

	filled := 0
	for i := 0; i < n; i++ {
		key := keventKey(&raw[i])
		if key == wakeKey {
			p.wake.drain()
			continue
		}
		var readiness IOEvents
		switch raw[i].Filter {
		case unix.EVFILT_READ:
			readiness = EventReadable
		case unix.EVFILT_WRITE:
			readiness = EventWritable
		}
		if raw[i].Flags&(unix.EV_ERROR|unix.EV_EOF) != 0 {
			readiness |= EventReadable | EventWritable
		}
		events[filled] = Event{Key: key, Readiness: readiness}
		filled++
	}
	return filled, nil
}

func (p *kqueuePoller) Notify() error {
	return p.wake.signal()
}

func (p *kqueuePoller) Close() error {
	_ = p.wake.close()
	return unix.Close(p.kq)
}

func kevent(raw int, filter int16, flags uint16, key uint64) unix.Kevent_t {
	ev := unix.Kevent_t{
		Ident:  uint64(raw),
		Filter: filter,
		Flags:  flags,
	}
	ev.Udata = (*byte)(unsafe.Pointer(uintptr(key)))
	return ev
}

func keventKey(ev *unix.Kevent_t) uint64 {
	return uint64(uintptr(unsafe.Pointer(ev.Udata)))
}

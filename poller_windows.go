//go:build windows

package reactor

import (
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// iocpOverlapped extends windows.Overlapped with the reactor key and
// direction of the zero-byte I/O operation it backs. GetQueuedCompletionStatus
// hands back the *windows.Overlapped pointer for the completed op verbatim,
// so casting it back to *iocpOverlapped recovers both without a side table
// keyed by handle.
type iocpOverlapped struct {
	ov       windows.Overlapped
	key      uint64
	writable bool
}

// iocpPoller adapts IOCP, a completion port, into the readiness interface
// spec section 4.1 requires, grounded on the momentics-hioload-ws
// iocpReactor (completion key routing via CreateIoCompletionPort/
// GetQueuedCompletionStatus) combined with the standard zero-byte overlapped
// WSARecv/WSASend technique used to emulate readiness polling on top of a
// completion port: a zero-length WSARecv completes once the socket has data
// to read without consuming it, and a zero-length WSASend completes once the
// send buffer has room, without this poller needing the AFD driver directly.
type iocpPoller struct {
	iocp windows.Handle

	mu      sync.Mutex
	pending map[*iocpOverlapped]windows.Handle // keeps the *iocpOverlapped reachable for the GC until its completion (or cancellation) arrives
}

func newPoller() (Poller, error) {
	iocp, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, wrapPollError("CreateIoCompletionPort", err)
	}
	return &iocpPoller{iocp: iocp, pending: make(map[*iocpOverlapped]windows.Handle)}, nil
}

// Insert associates raw with the completion port. It does not change raw's
// blocking mode.
func (p *iocpPoller) Insert(raw int) error {
	h := windows.Handle(raw)
	if _, err := windows.CreateIoCompletionPort(h, p.iocp, 0, 0); err != nil {
		return wrapPollError("CreateIoCompletionPort(associate)", err)
	}
	return nil
}

func (p *iocpPoller) Interest(raw int, key uint64, readable, writable bool) error {
	h := windows.Handle(raw)
	if readable {
		if err := p.postZeroByteRecv(h, key); err != nil {
			return err
		}
	}
	if writable {
		if err := p.postZeroByteSend(h, key); err != nil {
			return err
		}
	}
	return nil
}

func (p *iocpPoller) postZeroByteRecv(h windows.Handle, key uint64) error {
	o := &iocpOverlapped{key: key, writable: false}
	p.track(o, h)
	var recvd, flags uint32
	buf := windows.WSABuf{}
	err := windows.WSARecv(h, &buf, 1, &recvd, &flags, &o.ov, nil)
	if err != nil && !IsWouldBlock(err) {
		p.untrack(o)
		return wrapPollError("WSARecv(zero-byte)", err)
	}
	return nil
}

func (p *iocpPoller) postZeroByteSend(h windows.Handle, key uint64) error {
	o := &iocpOverlapped{key: key, writable: true}
	p.track(o, h)
	var sent uint32
	buf := windows.WSABuf{}
	err := windows.WSASend(h, &buf, 1, &sent, 0, &o.ov, nil)
	if err != nil && !IsWouldBlock(err) {
		p.untrack(o)
		return wrapPollError("WSASend(zero-byte)", err)
	}
	return nil
}

func (p *iocpPoller) track(o *iocpOverlapped, h windows.Handle) {
	p.mu.Lock()
	p.pending[o] = h
	p.mu.Unlock()
}

func (p *iocpPoller) untrack(o *iocpOverlapped) {
	p.mu.Lock()
	delete(p.pending, o)
	p.mu.Unlock()
}

// Remove cancels any zero-byte ops still outstanding on raw. Their
// completions are drained in Wait and reported as events, which the reactor
// drops since its source table no longer has an entry for the key by the
// time they surface.
func (p *iocpPoller) Remove(raw int) error {
	h := windows.Handle(raw)
	p.mu.Lock()
	var toCancel []*iocpOverlapped
	for o, oh := range p.pending {
		if oh == h {
			toCancel = append(toCancel, o)
		}
	}
	p.mu.Unlock()
	for _, o := range toCancel {
		_ = windows.CancelIoEx(h, &o.ov)
	}
	return nil
}

func (p *iocpPoller) Wait(events []Event, timeout time.Duration) (int, error) {
	filled := 0
	deadline := time.Time{}
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	for filled == 0 {
		ms := uint32(windows.INFINITE)
		if timeout >= 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return 0, nil
			}
			ms = uint32(remaining / time.Millisecond)
		}

		var bytes uint32
		var key uintptr
		var ov *windows.Overlapped
		err := windows.GetQueuedCompletionStatus(p.iocp, &bytes, &key, &ov, ms)
		if err != nil && ov == nil {
			if err == windows.WAIT_TIMEOUT {
				return 0, nil
			}
			return filled, wrapPollError("GetQueuedCompletionStatus", err)
		}
		// A non-nil ov with err set is a zero-byte op that completed with an
		// error (including cancellation by Remove); it is reported below like
		// any other completion so its owner retries and observes the error.

		if ov == nil {
			// Wake-up posted via Notify; never surfaced as a user Event.
			return filled, nil
		}

		o := (*iocpOverlapped)(unsafe.Pointer(ov))
		p.untrack(o)
		if o.key == wakeKey {
			continue
		}
		readiness := EventWritable
		if !o.writable {
			readiness = EventReadable
		}
		events[filled] = Event{Key: o.key, Readiness: readiness}
		filled++
		if filled == len(events) {
			return filled, nil
		}
	}
	return filled, nil
}

func (p *iocpPoller) Notify() error {
	return windows.PostQueuedCompletionStatus(p.iocp, 0, 0, nil)
}

func (p *iocpPoller) Close() error {
	return windows.CloseHandle(p.iocp)
}

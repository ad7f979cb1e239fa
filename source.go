package reactor

import "sync"

// waker is a single suspended caller waiting on one direction of a Source.
// close(ready) broadcasts to every goroutine blocked on it; this is Go's
// idiom for the spec's Waker, since there is no poll-based Future to re-poll
// here, only a goroutine parked in a channel receive.
type waker struct {
	ready chan struct{}
}

func newWaker() *waker {
	return &waker{ready: make(chan struct{})}
}

func (w *waker) wake() {
	close(w.ready)
}

// direction tracks the wakers and tick counter for one I/O direction
// (read or write) of a Source.
type direction struct {
	tick    uint64 // incremented every time this direction is marked ready
	wakers  []*waker
	pending bool // cleared by fire; no code path sets it to true
}

// Source is the reactor's per-handle bookkeeping: the raw OS handle, the
// dense key the poller reports events against, and independent waker lists
// for the read and write directions, grounded on the teacher's fdInfo/
// registry combination (fd_unix.go plus registry.go) but split per-direction
// since a socket can be simultaneously read-blocked and write-blocked by
// distinct callers.
//
// The tick counters close the race spec section 5 calls out: a caller that
// observes WouldBlock from a direct syscall, then registers a waker, must
// not miss a readiness event that fired in between. register returns the tick
// value observed at waker registration time; the direction is considered to
// have already fired if its tick has since advanced.
type Source struct {
	mu  sync.Mutex
	raw int
	key uint64

	read  direction
	write direction

	closed bool
}

// register adds a waker to the given direction, returning the pre-add tick
// so the caller can detect whether readiness already arrived. It does not arm
// interest with the reactor; waitDirection does that after registering.
func (s *Source) register(write bool, w *waker) (tick uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSourceClosed
	}
	d := &s.read
	if write {
		d = &s.write
	}
	tick = d.tick
	d.wakers = append(d.wakers, w)
	return tick, nil
}

// fire marks direction as ready, advances its tick, wakes every currently
// registered waker, and clears the waker list (they must re-register to
// observe the next readiness, matching the poller's one-shot rearm
// contract).
func (s *Source) fire(write bool) {
	s.mu.Lock()
	d := &s.read
	if write {
		d = &s.write
	}
	d.tick++
	d.pending = false
	wakers := d.wakers
	d.wakers = nil
	s.mu.Unlock()

	for _, w := range wakers {
		w.wake()
	}
}

// interestMask reports whether each direction currently has at least one
// registered waker. waitDirection uses this, after registering its own
// waker, to compute the union of both directions' desired interest: on
// Linux EPOLL_CTL_MOD replaces the whole event mask (not just the changed
// bit), so arming one direction from its waiter count alone would silently
// disarm the other direction's already-registered interest.
func (s *Source) interestMask() (readable, writable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.read.wakers) > 0, len(s.write.wakers) > 0
}

// observedTick reports the current tick for direction, used by
// waitDirection after registering and arming interest to check whether the
// direction fired before it starts waiting.
func (s *Source) observedTick(write bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if write {
		return s.write.tick
	}
	return s.read.tick
}

// markClosed flags the Source as torn down and wakes any stragglers so they
// observe ErrSourceClosed instead of blocking forever.
func (s *Source) markClosed() {
	s.mu.Lock()
	s.closed = true
	readWakers := s.read.wakers
	writeWakers := s.write.wakers
	s.read.wakers = nil
	s.write.wakers = nil
	s.mu.Unlock()

	for _, w := range readWakers {
		w.wake()
	}
	for _, w := range writeWakers {
		w.wake()
	}
}

package reactor

import (
	"container/heap"
	"time"
)

// timerEntry is one scheduled deadline in the reactor's timer heap, grounded
// on the teacher's timer/timerHeap pair (loop.go) but firing by closing a
// channel instead of invoking a stored task, since this reactor has no task
// queue: callers block on Timer.C instead of being called back inline.
type timerEntry struct {
	when  time.Time
	seq   uint64 // tiebreaker for equal deadlines, and a stable handle for cancellation
	timer *Timer
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].timer.index = i
	h[j].timer.index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.timer.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.timer.index = -1
	*h = old[:n-1]
	return e
}

// Timer is the reactor's realization of the spec's Timer future, shaped like
// time.Timer (C, Stop, Reset) since that is the idiomatic Go surface for a
// single future deadline a caller selects on.
type Timer struct {
	C <-chan time.Time
	c chan time.Time

	r     *Reactor
	entry *timerEntry
	index int // position in the heap, -1 when not scheduled; maintained by timerHeap.Swap/Pop
}

var timerSeq uint64

// NewTimer schedules a Timer to fire once, after d, on the given Reactor.
func (r *Reactor) NewTimer(d time.Duration) *Timer {
	c := make(chan time.Time, 1)
	t := &Timer{C: c, c: c, r: r, index: -1}
	r.scheduleTimer(t, time.Now().Add(d))
	return t
}

func (r *Reactor) scheduleTimer(t *Timer, when time.Time) {
	r.timerMu.Lock()
	timerSeq++
	e := &timerEntry{when: when, seq: timerSeq, timer: t}
	t.entry = e
	heap.Push(&r.timers, e)
	r.timerMu.Unlock()
	_ = r.Notify()
}

// Stop prevents the Timer from firing, returning false if it already fired
// or was already stopped.
func (t *Timer) Stop() bool {
	t.r.timerMu.Lock()
	defer t.r.timerMu.Unlock()
	if t.entry == nil || t.index < 0 {
		return false
	}
	heap.Remove(&t.r.timers, t.index)
	t.entry = nil
	return true
}

// Reset changes the Timer's deadline to d from now, as if the Timer were
// freshly created. Returns false if the Timer had already fired or been
// stopped, matching time.Timer.Reset's reporting contract.
func (t *Timer) Reset(d time.Duration) bool {
	t.r.timerMu.Lock()
	active := t.entry != nil && t.index >= 0
	if active {
		heap.Remove(&t.r.timers, t.index)
	}
	t.r.timerMu.Unlock()

	// Drain a stale pending fire so the next receive on C reflects this
	// Reset, not a deadline from before it.
	select {
	case <-t.c:
	default:
	}

	t.r.scheduleTimer(t, time.Now().Add(d))
	return active
}

// nextTimerDelay reports the duration until the earliest pending timer, or
// false if none are scheduled.
func (r *Reactor) nextTimerDelay() (time.Duration, bool) {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()
	if len(r.timers) == 0 {
		return 0, false
	}
	d := time.Until(r.timers[0].when)
	if d < 0 {
		d = 0
	}
	return d, true
}

// runTimers fires every timer whose deadline has passed.
func (r *Reactor) runTimers() {
	now := time.Now()
	for {
		r.timerMu.Lock()
		if len(r.timers) == 0 || r.timers[0].when.After(now) {
			r.timerMu.Unlock()
			return
		}
		e := heap.Pop(&r.timers).(*timerEntry)
		r.timerMu.Unlock()

		select {
		case e.timer.c <- now:
		default:
		}
	}
}

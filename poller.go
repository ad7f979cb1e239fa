// Package reactor implements a platform-portable readiness reactor: a
// process-wide singleton that multiplexes OS-handle readiness (via epoll on
// Linux, kqueue on Darwin/BSD, and IOCP on Windows) and timer deadlines into
// completions consumed by goroutines blocked in Async[T].Readable,
// Async[T].Writable, or a Timer's channel.
//
// # Architecture
//
// Five pieces, bottom-up: the platform Poller (poller.go plus one
// poller_*.go per OS), the per-handle Source (source.go) tracking registered
// wakers for readers and writers, the Reactor singleton (reactor.go) owning
// the poller, the source table and the timer heap, the Async[T] generic
// adapter (async.go) binding a handle to its Source, and Timer (timer.go).
//
// # Non-goals
//
// No completion-based (proactor) semantics, only readiness. No regular-file
// I/O (readiness polling does not work on regular files on Linux). No
// cross-process coordination. The broader task/executor runtime, connection
// pooling and TLS are deliberately out of scope: this package only exposes
// opaque, channel-based suspension points and a React/Drive entrypoint the
// caller's scheduling model hooks into.
package reactor

import "time"

// IOEvents is a bitset of readiness directions, analogous to epoll's
// EPOLLIN/EPOLLOUT.
type IOEvents uint8

const (
	// EventReadable indicates the handle is ready for a non-blocking read.
	EventReadable IOEvents = 1 << iota
	// EventWritable indicates the handle is ready for a non-blocking write.
	EventWritable
)

// Event is a single fired readiness event returned from Poller.Wait,
// carrying the Source key the reactor uses to look up the corresponding
// waker lists, and which directions became ready.
type Event struct {
	Key       uint64
	Readiness IOEvents
}

// Poller is the thin, portable abstraction over epoll/kqueue/IOCP required
// by spec section 4.1. Every implementation must provide one-shot readiness:
// once Wait reports an event for a (key, direction), that direction is
// disarmed until Interest re-arms it (with epoll's EPOLLONESHOT the other
// direction is disarmed too). This is load-bearing: it eliminates
// spurious wake storms and makes the Source's readiness deduplication
// trivial (see source.go).
type Poller interface {
	// Insert registers raw with the multiplexer with no interest set, and
	// switches raw into non-blocking mode. Must be called exactly once per
	// live handle, before any Interest call referencing it.
	Insert(raw int) error

	// Interest (re-)arms raw for the given readiness directions, associating
	// future fired events with key. One-shot: after firing, raw is disarmed
	// for at least the directions that fired (on epoll, for both) until
	// Interest is called again.
	Interest(raw int, key uint64, readable, writable bool) error

	// Remove deregisters raw. Idempotent with respect to in-flight events:
	// any event already queued for raw that has not yet been delivered via
	// Wait may still be observed, but the reactor silently drops events
	// whose key is no longer present in its source table.
	Remove(raw int) error

	// Wait blocks until at least one event is ready, timeout elapses, or
	// Notify is called, then fills events and returns the number filled.
	// A negative timeout blocks indefinitely. EINTR is retried transparently
	// inside the implementation and never surfaces to the caller.
	Wait(events []Event, timeout time.Duration) (int, error)

	// Notify unblocks any goroutine currently in Wait, exactly once. It is
	// idempotent while the previous notification has not yet been observed:
	// multiple Notify calls before the next Wait collapse into a single
	// wake-up, the same way a self-pipe or eventfd only needs to be
	// non-empty, not incremented once per notifier.
	Notify() error

	// Close releases the multiplexer and any internal wake object.
	Close() error
}

// newPoller constructs the platform Poller implementation. Defined per
// platform in poller_linux.go / poller_darwin.go / poller_windows.go.

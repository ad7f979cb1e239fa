package reactor

import (
	"context"
	"errors"
)

// Handle is the minimal interface a concrete I/O type (net.Conn's raw
// socket, a pipe end, an eventfd) must satisfy to be wrapped in Async[T]:
// access to the raw, poller-registerable descriptor, and the ability to
// close it. Concrete adapters (net_tcp.go, net_udp.go, net_unix.go) embed
// their OS handle and implement this.
type Handle interface {
	// Fd returns the raw, poller-registerable descriptor.
	Fd() int
	// Close releases the underlying OS handle.
	Close() error
}

// Async wraps a Handle T with the Source bookkeeping that lets callers
// suspend until it becomes readable or writable, generalizing the spec's
// Async<T>: Rust's poll-based read_with/write_with become the free
// functions ReadWith/WriteWith below rather than methods, since Go forbids a
// method from introducing type parameters beyond its receiver's.
type Async[T Handle] struct {
	handle T
	src    *Source
	r      *Reactor
}

// NewAsync registers handle with r and returns the Async wrapper. r.Drive
// must be running (in any goroutine) for Readable/Writable/ReadWith/
// WriteWith to ever unblock.
func NewAsync[T Handle](r *Reactor, handle T) (*Async[T], error) {
	src, err := r.Add(handle.Fd())
	if err != nil {
		return nil, err
	}
	return &Async[T]{handle: handle, src: src, r: r}, nil
}

// Get returns the wrapped handle, for operations Async itself does not
// expose (e.g. setting socket options).
func (a *Async[T]) Get() T { return a.handle }

// Reactor returns the Reactor this Async is registered with, used by
// adapters (e.g. TCPListener.Accept) that register further Async values of
// their own.
func (a *Async[T]) Reactor() *Reactor { return a.r }

// Close deregisters the Source from the reactor and closes the underlying
// handle. Any goroutine currently parked in Readable/Writable/ReadWith/
// WriteWith observes ErrSourceClosed.
func (a *Async[T]) Close() error {
	_ = a.r.Remove(a.src)
	return a.handle.Close()
}

// Readable blocks until the handle is readable or ctx is done, arming
// one-shot read interest with the reactor first.
func (a *Async[T]) Readable(ctx context.Context) error {
	return waitDirection(ctx, a.r, a.src, false)
}

// Writable blocks until the handle is writable or ctx is done, arming
// one-shot write interest with the reactor first.
func (a *Async[T]) Writable(ctx context.Context) error {
	return waitDirection(ctx, a.r, a.src, true)
}

// waitDirection is the shared suspension logic behind Readable/Writable and
// ReadWith/WriteWith: register a waker, arm interest, then select on the
// waker firing, the context, or a readiness that raced in between
// registration and arming (detected via the tick comparison spec section 5
// requires).
func waitDirection(ctx context.Context, r *Reactor, src *Source, write bool) error {
	w := newWaker()
	tick, err := src.register(write, w)
	if err != nil {
		return err
	}
	readable, writable := src.interestMask()
	if err := r.Interest(src, readable, writable); err != nil {
		return err
	}
	// If the direction already advanced past tick (fired between register
	// and this check), don't wait on the waker.
	if src.observedTick(write) != tick {
		return nil
	}
	select {
	case <-w.ready:
		// markClosed wakes waiters the same way fire does; tell them apart.
		src.mu.Lock()
		closed := src.closed
		src.mu.Unlock()
		if closed {
			return ErrSourceClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrWouldBlock is returned by a non-blocking syscall wrapped in ReadWith or
// WriteWith when no readiness has been observed and the caller should retry
// after suspending again, mirroring spec section 6's WouldBlock absorption.
var ErrWouldBlock = errors.New("reactor: operation would block")

// ReadWith repeatedly calls op until it succeeds, returns a non-WouldBlock
// error, or ctx is done, suspending on Async.Readable between WouldBlock
// results. op should perform exactly one non-blocking read attempt (e.g.
// syscall.Read on a, or a net primitive wrapping it) and return
// ErrWouldBlock (or any error satisfying IsWouldBlock) when it cannot
// proceed yet.
//
// Free function, not a method, since Go forbids a method from introducing
// type parameters (R) beyond its receiver's (T).
func ReadWith[T Handle, R any](ctx context.Context, a *Async[T], op func(T) (R, error)) (R, error) {
	for {
		result, err := op(a.handle)
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) {
			return result, err
		}
		if err := a.Readable(ctx); err != nil {
			var zero R
			return zero, err
		}
	}
}

// WriteWith is ReadWith's write-direction counterpart.
func WriteWith[T Handle, R any](ctx context.Context, a *Async[T], op func(T) (R, error)) (R, error) {
	for {
		result, err := op(a.handle)
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) {
			return result, err
		}
		if err := a.Writable(ctx); err != nil {
			var zero R
			return zero, err
		}
	}
}

// ReadWithMut is a documented alias of ReadWith. spec.md §4.4 threads a
// mutable borrow of the handle through Rust's read_with; Go's pointer
// receivers already give op exclusive access to T's fields, so there is no
// separate mutable-borrow variant to express and this is implemented
// identically to ReadWith.
func ReadWithMut[T Handle, R any](ctx context.Context, a *Async[T], op func(T) (R, error)) (R, error) {
	return ReadWith(ctx, a, op)
}

// WriteWithMut is WriteWith's ReadWithMut counterpart.
func WriteWithMut[T Handle, R any](ctx context.Context, a *Async[T], op func(T) (R, error)) (R, error) {
	return WriteWith(ctx, a, op)
}

// isRetryable reports whether err indicates the caller should suspend and
// retry: WouldBlock directly, ErrWouldBlock, or a PollError wrapping either.
func isRetryable(err error) bool {
	if errors.Is(err, ErrWouldBlock) {
		return true
	}
	return IsWouldBlock(err)
}

package reactor

import (
	"context"
	"sync"
	"time"
)

// reactorOptions holds configuration applied through ReactorOption, grounded
// on the teacher's loopOptions/LoopOption pattern (options.go).
type reactorOptions struct {
	logger      *Logger
	pollBatch   int
	idleTimeout time.Duration
}

// ReactorOption configures a Reactor at construction time.
type ReactorOption interface {
	applyReactor(*reactorOptions)
}

type reactorOptionFunc func(*reactorOptions)

func (f reactorOptionFunc) applyReactor(o *reactorOptions) { f(o) }

// WithLogger overrides the Reactor's Logger. The default logs via stumpy at
// Info level to stderr.
func WithLogger(logger *Logger) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) { o.logger = logger })
}

// WithPollBatch sets how many events Poller.Wait may fill per call. Default
// 128, mirroring typical epoll_wait batch sizes.
func WithPollBatch(n int) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		if n > 0 {
			o.pollBatch = n
		}
	})
}

// WithIdleTimeout bounds how long Drive's Wait call blocks when no timer is
// pending, so a context cancellation is noticed within this bound even if
// nothing else wakes the poller. Default 1s.
func WithIdleTimeout(d time.Duration) ReactorOption {
	return reactorOptionFunc(func(o *reactorOptions) {
		if d > 0 {
			o.idleTimeout = d
		}
	})
}

func resolveReactorOptions(opts []ReactorOption) *reactorOptions {
	cfg := &reactorOptions{
		pollBatch:   128,
		idleTimeout: time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt.applyReactor(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = sharedDefaultLogger()
	}
	return cfg
}

// Reactor is the platform-portable readiness multiplexer described by spec
// section 4: it owns the platform Poller, the dense key -> Source table, and
// the timer heap, and drives all three from a single background goroutine
// started lazily by the first call to Reactor.Drive.
//
// Grounded on the teacher's Loop (loop.go): same "one owner goroutine calls
// Wait/poll and fans out to registered state" shape, generalized from a
// single-threaded JS-semantics task queue to multi-reader/multi-writer
// waker lists, since this reactor has no task queue of its own — callers are
// ordinary goroutines blocked on channels, not callbacks run inline by the
// driver.
type Reactor struct {
	opts   *reactorOptions
	poller Poller
	log    *rateLimitedLog

	mu      sync.Mutex
	sources map[uint64]*Source
	free    []uint64 // recycled keys, LIFO reuse keeps the table dense
	nextKey uint64

	timers  timerHeap
	timerMu sync.Mutex

	reactMu sync.Mutex
	events  []Event

	driveOnce sync.Once
	driveDone chan struct{}
	driveErr  error

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// New constructs a standalone Reactor. Most callers should use Default
// instead; New exists for tests and callers that want multiple independent
// reactors (e.g. one per NUMA node).
func New(opts ...ReactorOption) (*Reactor, error) {
	poller, err := newPoller()
	if err != nil {
		return nil, err
	}
	cfg := resolveReactorOptions(opts)
	return &Reactor{
		opts:       cfg,
		poller:     poller,
		log:        newRateLimitedLog(cfg.logger),
		sources:    make(map[uint64]*Source),
		nextKey:    1, // 0 is reserved: see wakeKey in notify_*.go
		events:     make([]Event, cfg.pollBatch),
		driveDone:  make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}, nil
}

var (
	defaultReactorOnce sync.Once
	defaultReactor     *Reactor
	defaultReactorErr  error
)

// Default returns the process-wide singleton Reactor, lazily constructed on
// first use. Spec section 3's design notes call for lazy initialization; Go
// has no implicit "idle executor calls react()" hook the way the original
// runtime does, so callers must additionally run Default().Drive(ctx) in a
// goroutine of their own choosing; NewAsync does not start it.
func Default() (*Reactor, error) {
	defaultReactorOnce.Do(func() {
		defaultReactor, defaultReactorErr = New()
	})
	return defaultReactor, defaultReactorErr
}

// allocKey reserves a dense key for a newly inserted handle, reusing a freed
// key when available.
func (r *Reactor) allocKey() uint64 {
	if n := len(r.free); n > 0 {
		k := r.free[n-1]
		r.free = r.free[:n-1]
		return k
	}
	k := r.nextKey
	r.nextKey++
	return k
}

// Add registers raw with the reactor and returns its Source. The caller
// retains ownership of raw and must call Reactor.Remove when done, typically
// via Async[T]'s Close.
func (r *Reactor) Add(raw int) (*Source, error) {
	if err := r.poller.Insert(raw); err != nil {
		return nil, err
	}
	r.mu.Lock()
	key := r.allocKey()
	src := &Source{raw: raw, key: key}
	r.sources[key] = src
	r.mu.Unlock()
	return src, nil
}

// Interest (re-)arms src for the requested directions. One-shot: callers
// must call Interest again after each fired event they still care about,
// matching the Poller contract.
func (r *Reactor) Interest(src *Source, readable, writable bool) error {
	return r.poller.Interest(src.raw, src.key, readable, writable)
}

// Remove deregisters src, wakes any stragglers with ErrSourceClosed, and
// recycles its key.
func (r *Reactor) Remove(src *Source) error {
	err := r.poller.Remove(src.raw)
	src.markClosed()
	r.mu.Lock()
	delete(r.sources, src.key)
	r.free = append(r.free, src.key)
	r.mu.Unlock()
	return err
}

// Notify wakes a goroutine currently blocked in Drive's Wait call, used when
// a timer is scheduled (NewTimer, Reset) from outside the driver goroutine.
func (r *Reactor) Notify() error {
	return r.poller.Notify()
}

// Drive runs the reactor's single background loop, repeatedly calling React,
// until Shutdown is called. It is safe, and a no-op beyond the first call,
// to invoke Drive from multiple goroutines: only the first caller's
// goroutine actually starts the driver, but every caller — including the
// first — unblocks independently as soon as its own ctx is done or the
// reactor is shut down, honoring each call's own cancellation rather than
// whichever caller happened to win the race to drive.
func (r *Reactor) Drive(ctx context.Context) error {
	r.driveOnce.Do(func() {
		go func() {
			defer close(r.driveDone)
			r.driveErr = r.driveLoop()
		}()
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.driveDone:
		return r.driveErr
	}
}

// driveLoop is the background driver goroutine's body: React in a loop,
// using a background context since its lifetime is governed by Shutdown,
// not any individual Drive caller's ctx, until Shutdown closes shutdownCh.
func (r *Reactor) driveLoop() error {
	for {
		select {
		case <-r.shutdownCh:
			return ErrReactorClosed
		default:
		}
		if err := r.React(context.Background()); err != nil {
			return err
		}
	}
}

// React performs a single batch of work, realizing spec section 4.3's
// react() contract as a standalone primitive distinct from Drive's loop:
// return ctx.Err() without waiting if ctx is already done, otherwise compute
// the timeout as min(idleTimeout, time until the next timer), wait for
// poller events or that timeout (ctx is not watched during the wait), fire
// any Sources
// whose interest matched, then run any timers whose deadline has passed.
// Safe to call concurrently with Drive or other React calls; only one
// actually polls at a time.
func (r *Reactor) React(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	r.reactMu.Lock()
	defer r.reactMu.Unlock()

	timeout := r.opts.idleTimeout
	if d, ok := r.nextTimerDelay(); ok && d < timeout {
		timeout = d
	}

	n, err := r.poller.Wait(r.events, timeout)
	if err != nil {
		r.log.pollError("wait", err)
		return nil
	}

	for i := 0; i < n; i++ {
		r.dispatch(r.events[i])
	}

	r.runTimers()
	return nil
}

func (r *Reactor) dispatch(ev Event) {
	r.mu.Lock()
	src, ok := r.sources[ev.Key]
	r.mu.Unlock()
	if !ok {
		// Source was removed between the event firing and delivery; drop it,
		// per Poller.Remove's documented contract.
		return
	}
	if ev.Readiness&EventReadable != 0 {
		src.fire(false)
	}
	if ev.Readiness&EventWritable != 0 {
		src.fire(true)
	}
	// One-shot disarm can also cover a direction that did not fire
	// (EPOLLONESHOT disarms the whole descriptor), so re-arm for any waiters
	// still registered.
	if readable, writable := src.interestMask(); readable || writable {
		_ = r.Interest(src, readable, writable)
	}
}

// Shutdown stops the reactor's background driver and tears down its poller.
// Every outstanding and future Drive call returns ErrReactorClosed once its
// own ctx has not already fired first. Safe to call more than once; only the
// first call has effect.
func (r *Reactor) Shutdown() error {
	var err error
	r.shutdownOnce.Do(func() {
		close(r.shutdownCh)
		_ = r.poller.Notify() // wake a blocked Wait so driveLoop observes shutdownCh promptly
		err = r.poller.Close()
	})
	return err
}

// Close is Shutdown's io.Closer-compatible alias.
func (r *Reactor) Close() error {
	return r.Shutdown()
}

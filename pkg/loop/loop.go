// Package loop provides a single-threaded event loop.
//
// A Loop owns a queue of callbacks and runs them one at a time on the
// goroutine that called Run. State touched only from loop callbacks needs no
// locking. Other goroutines (timers, network completions) hand work to the
// loop with Dispatch.
//
//	l := loop.New(loop.WithLogger(logger))
//	go l.Run(ctx)
//	go func() {
//	    res, err := fetch()
//	    l.Dispatch(func() { apply(res, err) })
//	}()
package loop

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Call when the loop has stopped.
var ErrClosed = errors.New("loop: closed")

// DefaultQueueSize is the dispatch buffer used when none is configured.
const DefaultQueueSize = 256

// Dispatcher schedules a function to run on an event loop.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Inline runs dispatched functions immediately on the caller's goroutine.
// Only suitable when the caller already serialises access.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// Loop is a serial callback executor.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for panic reports.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithQueueSize sets the dispatch buffer size.
func WithQueueSize(n int) Option {
	return func(lp *Loop) {
		if n > 0 {
			lp.queue = make(chan func(), n)
		}
	}
}

// New creates a Loop. Call Run to start processing.
func New(opts ...Option) *Loop {
	l := &Loop{
		queue:  make(chan func(), DefaultQueueSize),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch queues fn. It blocks while the queue is full and discards fn once
// the loop is closed.
func (l *Loop) Dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	finished := make(chan struct{})
	l.Dispatch(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes callbacks until ctx is cancelled or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.queue:
			l.execute(fn)
		case <-l.done:
			return nil
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		}
	}
}

// Drain runs every callback already queued and returns how many ran.
// It must not be called concurrently with Run.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			l.execute(fn)
			n++
		default:
			return n
		}
	}
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Close stops the loop. Queued callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

package vtest

import (
	"sync"
	"testing"
	"time"
)

// DefaultWait bounds how long helpers wait for asynchronous work.
const DefaultWait = 2 * time.Second

// ManualLoop is a loop.Dispatcher whose callbacks run only when the test
// drains it.
type ManualLoop struct {
	mu     sync.Mutex
	queue  []func()
	signal chan struct{}
}

// NewManualLoop returns an empty ManualLoop.
func NewManualLoop() *ManualLoop {
	return &ManualLoop{signal: make(chan struct{}, 1)}
}

// Dispatch queues fn. Safe to call from any goroutine.
func (l *ManualLoop) Dispatch(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.signal <- struct{}{}:
	default:
	}
}

// Len returns the number of queued callbacks.
func (l *ManualLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Drain runs queued callbacks, including ones they queue, until the queue is
// empty. It returns how many ran.
func (l *ManualLoop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// Await waits until at least one callback is queued, then drains.
// It fails the test if nothing arrives within DefaultWait.
func (l *ManualLoop) Await(tb testing.TB) int {
	tb.Helper()
	deadline := time.NewTimer(DefaultWait)
	defer deadline.Stop()
	for {
		if l.Len() > 0 {
			return l.Drain()
		}
		select {
		case <-l.signal:
		case <-deadline.C:
			tb.Fatalf("no callback dispatched within %v", DefaultWait)
			return 0
		}
	}
}

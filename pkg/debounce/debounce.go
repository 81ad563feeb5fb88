// Package debounce provides a restartable quiet-period timer.
//
// A Debouncer runs its function once, interval after the most recent
// Trigger. Repeated triggers inside the interval push the deadline back, so a
// burst of N triggers produces a single run.
//
//	d := debounce.New(time.Second, func() { loop.Dispatch(send) })
//	d.Trigger() // t=0
//	d.Trigger() // t=400ms, deadline moves to t=1.4s
//	// fn runs once at t=1.4s
//
// The function runs on the clock's timer goroutine. Callers that own
// single-threaded state should hop back onto their event loop from fn.
package debounce

import (
	"sync"
	"time"
)

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules functions. SystemClock uses the runtime timer.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the real-time Clock.
var SystemClock Clock = systemClock{}

// Debouncer coalesces triggers into a single delayed call.
type Debouncer struct {
	interval time.Duration
	fn       func()
	clock    Clock

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the clock used to schedule runs.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// New creates a Debouncer that calls fn interval after the latest Trigger.
func New(interval time.Duration, fn func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		interval: interval,
		fn:       fn,
		clock:    SystemClock,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Interval returns the quiet period.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Trigger (re)starts the quiet period from now.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.interval, func() {
		d.expire(gen)
	})
}

// expire runs fn if gen is still the latest trigger.
// A timer that already fired when Stop was called lands here with a stale gen.
func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Cancel stops a scheduled run. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs fn immediately if a run was pending, on the caller's goroutine.
// It reports whether fn ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	pending := d.cancelLocked()
	d.mu.Unlock()

	if pending {
		d.fn()
	}
	return pending
}

package vtest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// Call is one request received by a FakeTransport.
type Call struct {
	Value bool
	reply chan reply
}

type reply struct {
	value bool
	err   error
}

// Reply completes the call.
func (c *Call) Reply(value bool, err error) {
	c.reply <- reply{value: value, err: err}
}

// Succeed completes the call confirming the requested value.
func (c *Call) Succeed() {
	c.Reply(c.Value, nil)
}

// Fail completes the call with err.
func (c *Call) Fail(err error) {
	c.Reply(false, err)
}

// FakeTransport records toggle requests and blocks each one until the test
// replies to it.
type FakeTransport struct {
	calls chan *Call
	count atomic.Int32
}

// NewFakeTransport returns an empty FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{calls: make(chan *Call, 64)}
}

// Set records the request and waits for a reply or ctx cancellation.
func (f *FakeTransport) Set(ctx context.Context, value bool) (bool, error) {
	c := &Call{Value: value, reply: make(chan reply, 1)}
	f.count.Add(1)
	f.calls <- c
	select {
	case r := <-c.reply:
		return r.value, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Count returns how many requests have been made.
func (f *FakeTransport) Count() int {
	return int(f.count.Load())
}

// Next returns the next unanswered request, failing the test if none arrives
// within DefaultWait.
func (f *FakeTransport) Next(tb testing.TB) *Call {
	tb.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(DefaultWait):
		tb.Fatalf("no request within %v", DefaultWait)
		return nil
	}
}

// ExpectNone fails the test if a request arrives within d.
func (f *FakeTransport) ExpectNone(tb testing.TB, d time.Duration) {
	tb.Helper()
	select {
	case c := <-f.calls:
		tb.Fatalf("unexpected request with value %v", c.Value)
	case <-time.After(d):
	}
}

// FakeBeacon records fire-and-forget sends.
type FakeBeacon struct {
	mu     sync.Mutex
	values []bool
}

// Send records value.
func (b *FakeBeacon) Send(value bool) {
	b.mu.Lock()
	b.values = append(b.values, value)
	b.mu.Unlock()
}

// Values returns the recorded values.
func (b *FakeBeacon) Values() []bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]bool, len(b.values))
	copy(out, b.values)
	return out
}

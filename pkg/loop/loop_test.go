package loop

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRunExecutesInOrder(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		l.Dispatch(func() { got = append(got, i) })
	}
	if err := l.Call(ctx, func() {}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
	if len(got) != 10 {
		t.Errorf("len(got) = %d, want 10", len(got))
	}
}

func TestDispatchFromManyGoroutines(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Dispatch(func() { counter++ })
		}()
	}
	wg.Wait()
	if err := l.Call(ctx, func() {}); err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
}

func TestPanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	l.Dispatch(func() { panic("boom") })
	ran := false
	l.Dispatch(func() { ran = true })

	if n := l.Drain(); n != 2 {
		t.Errorf("Drain() = %d, want 2", n)
	}
	if !ran {
		t.Error("callback after panic did not run")
	}
	if !strings.Contains(buf.String(), "loop callback panic") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}

func TestCloseDropsCallbacks(t *testing.T) {
	l := New()
	l.Close()
	l.Close()

	ran := false
	l.Dispatch(func() { ran = true })
	l.Drain()
	if ran {
		t.Error("callback ran after Close")
	}

	err := l.Call(context.Background(), func() {})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Call() after Close error = %v, want ErrClosed", err)
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done() not closed")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestInline(t *testing.T) {
	ran := false
	Inline.Dispatch(func() { ran = true })
	if !ran {
		t.Error("Inline did not run fn")
	}
}

package optimistic

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/devfolio-dev/folio/internal/errors"
	"github.com/devfolio-dev/folio/pkg/debounce"
	"github.com/devfolio-dev/folio/pkg/loop"
	"github.com/devfolio-dev/folio/pkg/metrics"
	"github.com/devfolio-dev/folio/pkg/toast"
)

// DefaultInterval is the quiet period between the last click and the send.
const DefaultInterval = time.Second

// DefaultFailureMessage is shown when a request fails.
const DefaultFailureMessage = "Could not save your change. Please try again."

// Transport sets the server-side value. It returns the value the server now
// holds. Implementations must be idempotent.
type Transport interface {
	Set(ctx context.Context, value bool) (bool, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, value bool) (bool, error)

// Set calls f(ctx, value).
func (f TransportFunc) Set(ctx context.Context, value bool) (bool, error) { return f(ctx, value) }

// Beacon sends a final value without waiting for the outcome.
// Send must not block.
type Beacon interface {
	Send(value bool)
}

// BeaconFunc adapts a function to Beacon.
type BeaconFunc func(value bool)

// Send calls f(value).
func (f BeaconFunc) Send(value bool) { f(value) }

// State is a snapshot of a Toggle.
type State struct {
	Confirmed bool
	Displayed bool
	Pending   bool
	InFlight  *bool
}

// Toggle is an optimistic boolean reconciled with a server.
//
// All methods are safe for concurrent use. Timer fires and responses are
// handed to the configured dispatcher, so with a loop.Loop every transition
// happens on the loop goroutine in event order. The renderer and notifier
// are called with the toggle locked and must not call back into it.
type Toggle struct {
	name           string
	interval       time.Duration
	clock          debounce.Clock
	dispatcher     loop.Dispatcher
	transport      Transport
	beacon         Beacon
	renderer       func(displayed bool)
	notifier       toast.Notifier
	failureMessage string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	ctx            context.Context

	mu        sync.Mutex
	confirmed bool
	displayed bool
	inFlight  *bool
	deferred  bool
	closed    bool
	debouncer *debounce.Debouncer
}

// Option configures a Toggle.
type Option func(*Toggle)

// WithName labels the toggle in logs.
func WithName(name string) Option {
	return func(t *Toggle) { t.name = name }
}

// WithInterval sets the debounce interval. Default: 1s.
func WithInterval(d time.Duration) Option {
	return func(t *Toggle) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithClock sets the clock used for debouncing.
func WithClock(c debounce.Clock) Option {
	return func(t *Toggle) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithDispatcher sets where timer fires and responses are processed.
// Default: inline on the goroutine that produced them.
func WithDispatcher(d loop.Dispatcher) Option {
	return func(t *Toggle) {
		if d != nil {
			t.dispatcher = d
		}
	}
}

// WithBeacon sets the teardown transport.
func WithBeacon(b Beacon) Option {
	return func(t *Toggle) { t.beacon = b }
}

// WithRenderer sets the function that repaints the displayed value.
func WithRenderer(fn func(displayed bool)) Option {
	return func(t *Toggle) { t.renderer = fn }
}

// WithNotifier sets where failure notices go. Default: toast.LogNotifier.
func WithNotifier(n toast.Notifier) Option {
	return func(t *Toggle) {
		if n != nil {
			t.notifier = n
		}
	}
}

// WithFailureMessage sets the notice text shown on failure.
func WithFailureMessage(msg string) Option {
	return func(t *Toggle) {
		if msg != "" {
			t.failureMessage = msg
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Toggle) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Toggle) { t.metrics = m }
}

// WithContext sets the parent context of requests.
func WithContext(ctx context.Context) Option {
	return func(t *Toggle) {
		if ctx != nil {
			t.ctx = ctx
		}
	}
}

// New creates a Toggle whose confirmed and displayed values start at initial.
func New(initial bool, transport Transport, opts ...Option) *Toggle {
	t := &Toggle{
		interval:       DefaultInterval,
		clock:          debounce.SystemClock,
		dispatcher:     loop.Inline,
		transport:      transport,
		failureMessage: DefaultFailureMessage,
		logger:         slog.Default(),
		ctx:            context.Background(),
		confirmed:      initial,
		displayed:      initial,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.notifier == nil {
		t.notifier = toast.LogNotifier{Logger: t.logger}
	}
	if t.name != "" {
		t.logger = t.logger.With("toggle", t.name)
	}
	t.debouncer = debounce.New(t.interval, func() {
		t.dispatcher.Dispatch(t.fire)
	}, debounce.WithClock(t.clock))
	return t
}

// Click flips the displayed value, repaints, and restarts the quiet period.
func (t *Toggle) Click() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}

	t.displayed = !t.displayed
	t.metrics.ToggleClick()
	t.render()
	t.debouncer.Trigger()
}

// fire runs when the quiet period ends.
func (t *Toggle) fire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if t.inFlight != nil {
		t.deferred = true
		return
	}
	t.send()
}

// send issues a request for the displayed value unless it is already
// confirmed. Callers hold t.mu and have checked that nothing is in flight.
func (t *Toggle) send() {
	if t.displayed == t.confirmed {
		t.metrics.ToggleCoalesced()
		t.logger.Debug("toggle send skipped", "value", t.displayed)
		return
	}

	value := t.displayed
	t.inFlight = &value
	t.logger.Debug("toggle send", "value", value)

	ctx := t.ctx
	go func() {
		got, err := t.transport.Set(ctx, value)
		t.dispatcher.Dispatch(func() {
			t.resolve(value, got, err)
		})
	}()
}

// resolve applies the response to the request for sent.
func (t *Toggle) resolve(sent, got bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.inFlight = nil

	result := metrics.ResultFailure
	if err == nil && got != sent {
		result = metrics.ResultMismatch
		err = errors.New("E002").WithDetail("server returned a different value than requested")
	}
	if err != nil {
		t.metrics.ToggleRequest(result)
		t.fail(sent, err)
		return
	}

	t.confirmed = got
	t.metrics.ToggleRequest(metrics.ResultSuccess)
	t.logger.Debug("toggle confirmed", "value", got)

	if t.deferred {
		t.deferred = false
		t.send()
	}
}

// fail reverts the display to the value held before the request.
func (t *Toggle) fail(sent bool, err error) {
	t.debouncer.Cancel()
	t.deferred = false
	t.displayed = t.confirmed
	t.logger.Warn("toggle request failed",
		"value", sent,
		"error", errors.FromError(err, "E001"))
	t.render()
	toast.Error(t.notifier, t.failureMessage)
}

// Teardown flushes an unconfirmed value through the beacon and closes the
// toggle. Later calls do nothing.
func (t *Toggle) Teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true

	pending := t.debouncer.Cancel()
	if !pending && t.displayed == t.confirmed {
		return
	}
	if t.beacon == nil {
		t.logger.Debug("toggle teardown without beacon", "value", t.displayed)
		return
	}
	t.metrics.ToggleBeacon()
	t.sendBeacon(t.displayed)
}

func (t *Toggle) sendBeacon(value bool) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Debug("toggle beacon panic", "panic", r)
		}
	}()
	t.beacon.Send(value)
}

// State returns a snapshot.
func (t *Toggle) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := State{
		Confirmed: t.confirmed,
		Displayed: t.displayed,
		Pending:   t.debouncer.Pending(),
	}
	if t.inFlight != nil {
		v := *t.inFlight
		s.InFlight = &v
	}
	return s
}

// Displayed returns the value on screen.
func (t *Toggle) Displayed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.displayed
}

// Closed reports whether Teardown has run.
func (t *Toggle) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Toggle) render() {
	if t.renderer != nil {
		t.renderer(t.displayed)
	}
}

package likeapi

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBeaconTimeout bounds a teardown request.
const DefaultBeaconTimeout = 2 * time.Second

// Beacon sends a final like state without waiting for the outcome.
type Beacon struct {
	client  *Client
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewBeacon returns a Beacon posting through client. timeout of 0 means
// DefaultBeaconTimeout.
func NewBeacon(client *Client, timeout time.Duration) *Beacon {
	if timeout <= 0 {
		timeout = DefaultBeaconTimeout
	}
	return &Beacon{client: client, timeout: timeout}
}

// Send posts value in the background. It never blocks and never panics.
func (b *Beacon) Send(value bool) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.client.logger.Debug("like beacon panic", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		ctx, span := b.client.tracer.Start(ctx, "likeapi.beacon",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(b.client.attrs(value)...))
		defer span.End()

		if _, err := b.client.post(ctx, value); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.client.logger.Debug("like beacon failed", "id", b.client.id, "value", value, "error", err)
			return
		}
		span.SetStatus(codes.Ok, "")
	}()
}

// Wait blocks until every sent beacon has finished. Use it before process
// exit; the page-teardown path never waits.
func (b *Beacon) Wait() {
	b.wg.Wait()
}

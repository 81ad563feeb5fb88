package likeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "folio/likeapi"

// DefaultTimeout bounds a confirming request.
const DefaultTimeout = 10 * time.Second

// Response is the JSON body of the like endpoints.
type Response struct {
	Liked   *bool  `json:"liked,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

// APIError is returned for a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("like request failed: HTTP %d", e.Status)
	}
	return fmt.Sprintf("like request failed: HTTP %d: %s", e.Status, e.Message)
}

// Client sets the like state of one resource.
type Client struct {
	base       string
	id         string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// NewClient returns a Client for resource id under base,
// e.g. NewClient("https://devfolio.io/api/portfolio", "12").
func NewClient(base, id string, opts ...Option) *Client {
	c := &Client{
		base:       strings.TrimSuffix(base, "/"),
		id:         id,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// URL returns the endpoint for value.
func (c *Client) URL(value bool) string {
	action := "remove-like"
	if value {
		action = "add-like"
	}
	return c.base + "/" + c.id + "/" + action
}

// Set asks the server to store value and returns the value it now holds.
// When the body does not say, the requested value is taken as confirmed.
func (c *Client) Set(ctx context.Context, value bool) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "likeapi.set",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(c.attrs(value)...))
	defer span.End()

	resp, err := c.post(ctx, value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	got := value
	if resp.Liked != nil {
		got = *resp.Liked
	}
	span.SetAttributes(attribute.Bool("folio.like.confirmed", got))
	span.SetStatus(codes.Ok, "")
	c.logger.Debug("like set", "id", c.id, "value", value, "confirmed", got)
	return got, nil
}

func (c *Client) post(ctx context.Context, value bool) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(value), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if err != nil {
		return nil, err
	}

	var parsed Response
	if len(body) > 0 {
		// A body that isn't JSON still leaves the status to decide.
		_ = json.Unmarshal(body, &parsed)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &APIError{Status: res.StatusCode, Message: parsed.Message}
	}
	return &parsed, nil
}

func (c *Client) attrs(value bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("folio.like.id", c.id),
		attribute.Bool("folio.like.value", value),
	}
}

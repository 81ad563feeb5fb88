package attachments

import (
	"log/slog"
	"net/url"

	"github.com/devfolio-dev/folio/pkg/changes"
	"github.com/devfolio-dev/folio/pkg/editor"
	"github.com/devfolio-dev/folio/pkg/metrics"
	"github.com/devfolio-dev/folio/pkg/vdom"
)

// Defaults.
const (
	DefaultFieldName    = "images"
	DefaultRecordedAttr = "data-recorded"
)

// Document is the editor surface the Tracker needs.
type Document interface {
	Root() *vdom.VNode
	Subscribe(fn func(changes.Batch)) func()
	OnUpload(fn func(editor.Upload)) func()
	Tag(key, attr, value, origin string) error
}

// Tracker mirrors the tracked images of a Document into a Registry.
// Like the Document, it must be driven from a single goroutine.
type Tracker struct {
	doc          Document
	classifier   changes.Classifier
	fieldName    string
	recordedAttr string
	logger       *slog.Logger
	metrics      *metrics.Metrics

	registry *Registry
	unsubs   []func()
	closed   bool

	handling bool
	pending  []changes.Batch
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClassifier sets which elements are tracked.
func WithClassifier(c changes.Classifier) Option {
	return func(t *Tracker) {
		t.classifier = c
	}
}

// WithFieldName sets the hidden input name. Default: "images".
func WithFieldName(name string) Option {
	return func(t *Tracker) {
		if name != "" {
			t.fieldName = name
		}
	}
}

// WithRecordedAttr sets the marker attribute written on commit.
// Default: "data-recorded".
func WithRecordedAttr(attr string) Option {
	return func(t *Tracker) {
		if attr != "" {
			t.recordedAttr = attr
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// New seeds a Tracker from the document's current content and subscribes to
// its change and upload feeds.
func New(doc Document, opts ...Option) *Tracker {
	t := &Tracker{
		doc:          doc,
		classifier:   changes.NewClassifier(),
		fieldName:    DefaultFieldName,
		recordedAttr: DefaultRecordedAttr,
		logger:       slog.Default(),
		registry:     NewRegistry(),
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, ev := range t.classifier.Scan(doc.Root()) {
		t.registry.Add(ev.Ref, ev.Element)
	}
	t.metrics.AttachmentRegistrySize(t.registry.Len())

	t.unsubs = append(t.unsubs,
		doc.Subscribe(t.HandleBatch),
		doc.OnUpload(t.Commit),
	)
	return t
}

// Commit records a finished upload. The element is bound to the reference
// unless it is already represented, then tagged as recorded.
func (t *Tracker) Commit(u editor.Upload) {
	if t.closed || u.Ref == "" {
		return
	}

	if u.Key == "" {
		// Without an element only presence can be checked.
		if !t.registry.Contains(u.Ref) {
			t.registry.Add(u.Ref, "")
			t.metrics.AttachmentEvent("committed")
		}
		t.metrics.AttachmentRegistrySize(t.registry.Len())
		return
	}

	switch {
	case t.registry.HasElement(u.Key):
	case t.registry.Bind(u.Ref, u.Key):
	default:
		t.registry.Add(u.Ref, u.Key)
		t.registry.order(t.positions())
		t.metrics.AttachmentEvent("committed")
	}
	t.metrics.AttachmentRegistrySize(t.registry.Len())

	if err := t.doc.Tag(u.Key, t.recordedAttr, "true", editor.OriginTracker); err != nil {
		t.logger.Warn("attachment tag failed", "element", u.Key, "ref", u.Ref, "error", err)
	}
}

// HandleBatch applies a change batch. Batches arriving while one is being
// applied are queued and applied afterwards, in order.
func (t *Tracker) HandleBatch(b changes.Batch) {
	if t.closed || b.Origin == editor.OriginTracker {
		return
	}
	if t.handling {
		t.pending = append(t.pending, b)
		return
	}

	t.handling = true
	defer func() { t.handling = false }()

	t.apply(b)
	for len(t.pending) > 0 {
		next := t.pending[0]
		t.pending = t.pending[1:]
		t.apply(next)
	}
}

func (t *Tracker) apply(b changes.Batch) {
	if b.Origin == editor.OriginUpload {
		// Commit records the reference an upload writes.
		b.Changes = withoutUpdates(b.Changes)
	}
	events := t.classifier.Classify(b)
	if len(events) == 0 {
		// Sibling moves carry no events but can still reorder entries.
		if t.registry.Len() > 1 {
			t.registry.order(t.positions())
		}
		return
	}

	next := t.registry.Clone()
	for _, ev := range events {
		switch ev.Kind {
		case changes.Removed:
			if _, ok := next.RemoveElement(ev.Element); ok {
				t.metrics.AttachmentEvent("removed")
			} else if ev.Element == "" && next.RemoveUnbound(ev.Ref) {
				t.metrics.AttachmentEvent("removed")
			}
		case changes.Inserted, changes.Moved:
			switch {
			case next.HasElement(ev.Element):
			case next.Bind(ev.Ref, ev.Element):
			default:
				next.Add(ev.Ref, ev.Element)
				t.metrics.AttachmentEvent("inserted")
			}
		}
	}

	next.order(t.positions())
	t.registry = next
	t.metrics.AttachmentRegistrySize(next.Len())
	t.logger.Debug("attachments updated",
		"seq", b.Seq,
		"origin", b.Origin,
		"events", len(events),
		"size", next.Len())
}

func withoutUpdates(in []changes.Change) []changes.Change {
	out := make([]changes.Change, 0, len(in))
	for _, ch := range in {
		if ch.Op != changes.Update {
			out = append(out, ch)
		}
	}
	return out
}

// positions maps each element key to its place in document order.
func (t *Tracker) positions() map[string]int {
	pos := make(map[string]int)
	vdom.Walk(t.doc.Root(), func(n *vdom.VNode) bool {
		if n.Key != "" {
			pos[n.Key] = len(pos)
		}
		return true
	})
	return pos
}

// Refs returns the registered references in document order.
func (t *Tracker) Refs() []string {
	return t.registry.Refs()
}

// Registry returns a copy of the registry.
func (t *Tracker) Registry() *Registry {
	return t.registry.Clone()
}

// FieldName returns the hidden input name.
func (t *Tracker) FieldName() string {
	return t.fieldName
}

// Fields renders the registry as hidden inputs, one per entry, in order.
func (t *Tracker) Fields() *vdom.VNode {
	container := vdom.Div(vdom.Class("attachment-fields"))
	for _, ref := range t.registry.Refs() {
		container.Children = append(container.Children, vdom.Input(
			vdom.Type("hidden"),
			vdom.Name(t.fieldName),
			vdom.Value(ref),
		))
	}
	return container
}

// Values returns the registry as form values.
func (t *Tracker) Values() url.Values {
	return url.Values{t.fieldName: t.registry.Refs()}
}

// Close unsubscribes from the document. The registry stays readable.
func (t *Tracker) Close() {
	if t.closed {
		return
	}
	t.closed = true
	for _, unsub := range t.unsubs {
		unsub()
	}
	t.unsubs = nil
}

package editor

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/devfolio-dev/folio/internal/errors"
	"github.com/devfolio-dev/folio/pkg/changes"
	"github.com/devfolio-dev/folio/pkg/render"
	"github.com/devfolio-dev/folio/pkg/vdom"
)

// Mutation origins.
const (
	OriginUser    = ""
	OriginUpload  = "upload"
	OriginTracker = "tracker"
)

// Upload reports that the image element Key now durably references Ref.
type Upload struct {
	Key string
	Ref string
}

// Validator inspects a proposed document. A non-nil error rejects the
// mutation and nothing is emitted.
type Validator func(prev, next *vdom.VNode) error

// Editor is a keyed document with a change feed.
type Editor struct {
	root       *vdom.VNode
	seq        uint64
	refAttr    string
	validators []Validator
	logger     *slog.Logger

	nextSub   int
	batchSubs []subscription[changes.Batch]
	uploadSub []subscription[Upload]

	queue      []event
	delivering bool
}

type subscription[T any] struct {
	id int
	fn func(T)
}

type event struct {
	batch  *changes.Batch
	upload *Upload
}

// Option configures an Editor.
type Option func(*Editor)

// WithValidator adds a mutation validator.
func WithValidator(v Validator) Option {
	return func(e *Editor) {
		if v != nil {
			e.validators = append(e.validators, v)
		}
	}
}

// WithRefAttr sets the attribute CompleteUpload writes the reference to.
// Default: changes.DefaultRefAttr.
func WithRefAttr(attr string) Option {
	return func(e *Editor) {
		if attr != "" {
			e.refAttr = attr
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Editor with an empty document.
func New(opts ...Option) *Editor {
	e := &Editor{
		root:    vdom.Fragment(),
		refAttr: changes.DefaultRefAttr,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns a copy of the current document.
func (e *Editor) Root() *vdom.VNode {
	return vdom.Clone(e.root)
}

// HTML renders the current document, keys included.
func (e *Editor) HTML() string {
	return render.RenderToString(e.root)
}

// Seq returns the sequence number of the last emitted batch.
func (e *Editor) Seq() uint64 {
	return e.seq
}

// RefAttr returns the reference attribute name.
func (e *Editor) RefAttr() string {
	return e.refAttr
}

// Load replaces the document without emitting a batch. Use it to open
// existing content before any tracker subscribes.
func (e *Editor) Load(root *vdom.VNode) {
	e.root = normalize(root)
}

// LoadHTML parses src and loads it.
func (e *Editor) LoadHTML(src string) error {
	root, err := vdom.ParseHTML(src)
	if err != nil {
		return errors.New("E010").WithDetail("invalid HTML").Wrap(err)
	}
	e.Load(root)
	return nil
}

// Apply replaces the document with next and emits one batch describing the
// difference. Unkeyed elements get fresh keys. If a validator rejects next
// the document is unchanged and nothing is emitted.
func (e *Editor) Apply(next *vdom.VNode, origin string) error {
	next = normalize(next)

	for _, v := range e.validators {
		if err := v(e.root, next); err != nil {
			e.logger.Debug("mutation rejected", "origin", origin, "error", err)
			if errors.Code(err) != "" {
				return err
			}
			return errors.New("E010").Wrap(err)
		}
	}

	patches := vdom.Diff(e.root, next)
	e.root = next
	e.seq++
	batch := changes.Batch{
		Seq:     e.seq,
		Origin:  origin,
		Changes: changes.FromPatches(patches),
	}
	e.emit(event{batch: &batch})
	return nil
}

// SetData parses src as the new document and applies it.
func (e *Editor) SetData(src, origin string) error {
	next, err := vdom.ParseHTML(src)
	if err != nil {
		return errors.New("E010").WithDetail("invalid HTML").Wrap(err)
	}
	return e.Apply(next, origin)
}

// InsertImage inserts an empty image placeholder under parentKey at index
// and returns its key. An empty parentKey means the document root. Index is
// clamped to the parent's child count.
func (e *Editor) InsertImage(parentKey string, index int) (string, error) {
	next := vdom.Clone(e.root)
	parent := next
	if parentKey != "" {
		parent = vdom.Find(next, parentKey)
		if parent == nil {
			return "", unknownElement(parentKey)
		}
	}
	if index < 0 || index > len(parent.Children) {
		index = len(parent.Children)
	}

	key := newKey()
	img := vdom.Img(vdom.Key(key))
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[index+1:], parent.Children[index:])
	parent.Children[index] = img

	if err := e.Apply(next, OriginUser); err != nil {
		return "", err
	}
	return key, nil
}

// CompleteUpload points the placeholder key at ref and then announces the
// upload. The attribute write is emitted as an OriginUpload batch.
func (e *Editor) CompleteUpload(key, ref string) error {
	next := vdom.Clone(e.root)
	n := vdom.Find(next, key)
	if n == nil {
		return unknownElement(key)
	}
	n.SetAttr("src", ref)
	n.SetAttr(e.refAttr, ref)

	if err := e.Apply(next, OriginUpload); err != nil {
		return err
	}
	e.emit(event{upload: &Upload{Key: key, Ref: ref}})
	return nil
}

// Tag sets a persistent attribute on the element key.
func (e *Editor) Tag(key, attr, value, origin string) error {
	next := vdom.Clone(e.root)
	n := vdom.Find(next, key)
	if n == nil {
		return unknownElement(key)
	}
	if cur, ok := n.GetAttr(attr); ok && cur == value {
		return nil
	}
	n.SetAttr(attr, value)
	return e.Apply(next, origin)
}

// Attr returns an attribute of the element key.
func (e *Editor) Attr(key, attr string) (string, bool) {
	return vdom.Find(e.root, key).GetAttr(attr)
}

// Subscribe registers fn for change batches and returns its cancel func.
func (e *Editor) Subscribe(fn func(changes.Batch)) func() {
	e.nextSub++
	id := e.nextSub
	e.batchSubs = append(e.batchSubs, subscription[changes.Batch]{id: id, fn: fn})
	return func() {
		e.batchSubs = removeSub(e.batchSubs, id)
	}
}

// OnUpload registers fn for upload completions and returns its cancel func.
func (e *Editor) OnUpload(fn func(Upload)) func() {
	e.nextSub++
	id := e.nextSub
	e.uploadSub = append(e.uploadSub, subscription[Upload]{id: id, fn: fn})
	return func() {
		e.uploadSub = removeSub(e.uploadSub, id)
	}
}

func removeSub[T any](subs []subscription[T], id int) []subscription[T] {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// emit delivers ev, or queues it if a delivery is already running.
func (e *Editor) emit(ev event) {
	e.queue = append(e.queue, ev)
	if e.delivering {
		return
	}
	e.delivering = true
	defer func() { e.delivering = false }()

	for len(e.queue) > 0 {
		ev := e.queue[0]
		e.queue = e.queue[1:]
		switch {
		case ev.batch != nil:
			for _, s := range e.batchSubs {
				s.fn(*ev.batch)
			}
		case ev.upload != nil:
			for _, s := range e.uploadSub {
				s.fn(*ev.upload)
			}
		}
	}
}

// normalize copies root into a fragment and gives every element a unique
// key. Later duplicates of a key are rekeyed.
func normalize(root *vdom.VNode) *vdom.VNode {
	var doc *vdom.VNode
	switch {
	case root == nil:
		doc = vdom.Fragment()
	case root.Kind == vdom.KindFragment:
		doc = vdom.Clone(root)
	default:
		doc = vdom.Fragment(vdom.Clone(root))
	}

	seen := make(map[string]bool)
	vdom.Walk(doc, func(n *vdom.VNode) bool {
		if n.Kind != vdom.KindElement {
			return true
		}
		if n.Key == "" || seen[n.Key] {
			n.Key = newKey()
		}
		seen[n.Key] = true
		return true
	})
	return doc
}

func newKey() string {
	return uuid.New().String()
}

func unknownElement(key string) error {
	return errors.New("E012").WithDetail("element " + key)
}

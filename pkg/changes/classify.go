package changes

import (
	"github.com/devfolio-dev/folio/pkg/vdom"
)

// Default classifier settings.
const (
	DefaultTag     = "img"
	DefaultRefAttr = "data-ref"
)

// Kind is the attachment event kind.
type Kind uint8

const (
	Inserted Kind = iota + 1
	Removed

	// Moved is a tracked element that left and re-entered the document in
	// the same batch with the same reference.
	Moved
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Removed:
		return "removed"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// Event is a tracked element entering or leaving the document.
type Event struct {
	Kind Kind

	// Ref is the element's recorded reference.
	Ref string

	// Element is the element's key, its identity in the document.
	Element string
}

// Classifier selects the elements a tracker follows.
type Classifier struct {
	// Tags are the image-like element tags. Empty means DefaultTag.
	Tags []string

	// RefAttr is the attribute carrying the recorded reference.
	// Empty means DefaultRefAttr.
	RefAttr string
}

// NewClassifier returns a Classifier with the default settings.
func NewClassifier() Classifier {
	return Classifier{Tags: []string{DefaultTag}, RefAttr: DefaultRefAttr}
}

func (c Classifier) refAttr() string {
	if c.RefAttr == "" {
		return DefaultRefAttr
	}
	return c.RefAttr
}

func (c Classifier) matchesTag(tag string) bool {
	if len(c.Tags) == 0 {
		return tag == DefaultTag
	}
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Ref returns the recorded reference of n if n is a tracked element.
// Elements without the reference attribute, or with an empty one, are not
// tracked.
func (c Classifier) Ref(n *vdom.VNode) (string, bool) {
	if n == nil || n.Kind != vdom.KindElement || !c.matchesTag(n.Tag) {
		return "", false
	}
	ref, ok := n.GetAttr(c.refAttr())
	if !ok || ref == "" {
		return "", false
	}
	return ref, true
}

// Classify returns the attachment events in batch, in change order and
// document order within each subtree. Events are netted by element key: an
// element removed and inserted in one batch is a single Moved event, or a
// Removed event followed by an Inserted one when its reference changed.
func (c Classifier) Classify(batch Batch) []Event {
	var events []Event
	for _, ch := range batch.Changes {
		switch ch.Op {
		case Insert:
			events = c.walk(events, ch.Node, Inserted)
		case Remove:
			events = c.walk(events, ch.Node, Removed)
		case Update:
			events = c.update(events, ch.Old, ch.Node)
		}
	}
	return netByElement(events)
}

func (c Classifier) walk(events []Event, root *vdom.VNode, kind Kind) []Event {
	vdom.Walk(root, func(n *vdom.VNode) bool {
		if ref, ok := c.Ref(n); ok {
			events = append(events, Event{Kind: kind, Ref: ref, Element: n.Key})
		}
		return true
	})
	return events
}

// update reports an in-place change of the reference attribute.
func (c Classifier) update(events []Event, old, cur *vdom.VNode) []Event {
	oldRef, wasTracked := c.Ref(old)
	curRef, isTracked := c.Ref(cur)
	if wasTracked && isTracked && oldRef == curRef {
		return events
	}
	if wasTracked {
		events = append(events, Event{Kind: Removed, Ref: oldRef, Element: old.Key})
	}
	if isTracked {
		events = append(events, Event{Kind: Inserted, Ref: curRef, Element: cur.Key})
	}
	return events
}

// netByElement pairs the removal and insertion of the same keyed element.
// The pair takes the place of whichever event came first.
func netByElement(events []Event) []Event {
	removed := make(map[string]int)
	inserted := make(map[string]int)
	for i, ev := range events {
		if ev.Element == "" {
			continue
		}
		switch ev.Kind {
		case Removed:
			removed[ev.Element] = i
		case Inserted:
			inserted[ev.Element] = i
		}
	}

	var out []Event
	for i, ev := range events {
		ri, wasRemoved := removed[ev.Element]
		ii, wasInserted := inserted[ev.Element]
		if ev.Element == "" || !wasRemoved || !wasInserted {
			out = append(out, ev)
			continue
		}
		if i != min(ri, ii) {
			continue
		}
		old, cur := events[ri], events[ii]
		if old.Ref == cur.Ref {
			out = append(out, Event{Kind: Moved, Ref: cur.Ref, Element: cur.Element})
		} else {
			out = append(out, old, cur)
		}
	}
	return out
}

// Scan returns an Inserted event for every tracked element under root, in
// document order. It seeds a tracker from an existing document.
func (c Classifier) Scan(root *vdom.VNode) []Event {
	return c.Classify(Batch{Changes: []Change{{Op: Insert, Node: root}}})
}

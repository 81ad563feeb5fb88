// Package changes turns document diffs into change batches and classifies
// them into attachment events.
//
// A Batch is what an editor delivers once per discrete mutation: the
// elements that entered and left the document, and the elements whose
// attributes changed in place. The Classifier reduces a
// batch to the events a tracker cares about, an image-like element carrying
// a recorded reference being inserted or removed. Inserted and removed
// subtrees are searched, so an image inside a deleted paragraph or a pasted
// figure is still reported.
package changes

import (
	"github.com/devfolio-dev/folio/pkg/vdom"
)

// Op is the change operation.
type Op uint8

const (
	Insert Op = iota + 1
	Remove

	// Update is an element whose attributes changed in place. Node is the
	// element after the change and Old the element before it.
	Update
)

// String returns the string representation of the Op.
func (o Op) String() string {
	switch o {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	case Update:
		return "update"
	default:
		return "unknown"
	}
}

// Change is a single subtree entering or leaving the document, or a single
// element changing its attributes.
type Change struct {
	Op   Op
	Node *vdom.VNode
	Old  *vdom.VNode
}

// Batch is the set of changes produced by one mutation.
type Batch struct {
	// Seq increases by one per emitted batch.
	Seq uint64

	// Origin identifies who produced the mutation. Empty means the user.
	Origin string

	Changes []Change
}

// Empty reports whether the batch has no changes.
func (b Batch) Empty() bool {
	return len(b.Changes) == 0
}

// FromPatches converts diff patches to changes in patch order.
// Text and move patches produce nothing. A replace is reported as the removal
// of the old subtree followed by the insertion of the new one. The attribute
// patches of one element collapse into a single Update.
func FromPatches(patches []vdom.Patch) []Change {
	var out []Change
	updated := make(map[*vdom.VNode]bool)
	for _, p := range patches {
		switch p.Op {
		case vdom.PatchSetAttr, vdom.PatchRemoveAttr:
			if p.Node != nil && p.Old != nil && !updated[p.Node] {
				updated[p.Node] = true
				out = append(out, Change{Op: Update, Node: p.Node, Old: p.Old})
			}
		case vdom.PatchInsertNode:
			if p.Node != nil {
				out = append(out, Change{Op: Insert, Node: p.Node})
			}
		case vdom.PatchRemoveNode:
			if p.Old != nil {
				out = append(out, Change{Op: Remove, Node: p.Old})
			}
		case vdom.PatchReplaceNode:
			if p.Old != nil {
				out = append(out, Change{Op: Remove, Node: p.Old})
			}
			if p.Node != nil {
				out = append(out, Change{Op: Insert, Node: p.Node})
			}
		}
	}
	return out
}

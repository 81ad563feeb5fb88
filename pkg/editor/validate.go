package editor

import (
	"fmt"

	"github.com/devfolio-dev/folio/internal/errors"
	"github.com/devfolio-dev/folio/pkg/vdom"
)

// MaxAttachments rejects documents holding more than max elements with the
// given tags (default "img"). Mutations that do not add such elements are
// always accepted, so a document loaded over the limit can still be edited
// down.
func MaxAttachments(max int, tags ...string) Validator {
	if len(tags) == 0 {
		tags = []string{"img"}
	}
	count := func(root *vdom.VNode) int {
		n := 0
		for _, tag := range tags {
			n += len(vdom.Elements(root, tag))
		}
		return n
	}
	return func(prev, next *vdom.VNode) error {
		got := count(next)
		if got <= max || got <= count(prev) {
			return nil
		}
		return errors.New("E011").WithDetail(fmt.Sprintf("%d attachments, limit %d", got, max))
	}
}

// NonEmpty rejects documents with no text and no elements.
func NonEmpty() Validator {
	return func(_, next *vdom.VNode) error {
		empty := true
		vdom.Walk(next, func(n *vdom.VNode) bool {
			if n.Kind == vdom.KindElement || (n.Kind == vdom.KindText && n.Text != "") {
				empty = false
			}
			return empty
		})
		if empty {
			return fmt.Errorf("document is empty")
		}
		return nil
	}
}

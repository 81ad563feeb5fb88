package optimistic

import (
	"github.com/devfolio-dev/folio/pkg/vdom"
)

// Hint attribute names.
const (
	AttrClass = "data-optimistic-class"
	AttrAttr  = "data-optimistic-attr"
)

// Builder combines several hints for one element.
//
//	vdom.Button(
//	    vdom.Text("Like"),
//	    optimistic.Hints().
//	        ClassToggle("liked").
//	        Attr("aria-pressed", "true").
//	        Build(),
//	)
type Builder struct {
	attrs []vdom.Attr
}

// Hints starts a Builder.
func Hints() *Builder {
	return &Builder{}
}

// ClassToggle toggles a class.
func (b *Builder) ClassToggle(class string) *Builder {
	b.attrs = append(b.attrs, ClassToggle(class))
	return b
}

// Attr sets an attribute.
func (b *Builder) Attr(name, value string) *Builder {
	b.attrs = append(b.attrs, Attr(name, value))
	return b
}

// Build returns the collected attributes.
func (b *Builder) Build() []vdom.Attr {
	out := make([]vdom.Attr, len(b.attrs))
	copy(out, b.attrs)
	return out
}

// ClassToggle hints that a click toggles class.
func ClassToggle(class string) vdom.Attr {
	return vdom.AttrOf(AttrClass, class+":toggle")
}

// Attr hints that a click sets an attribute. An empty value removes it.
func Attr(name, value string) vdom.Attr {
	return vdom.AttrOf(AttrAttr, name+":"+value)
}

// Button renders a like button showing liked. The hints let a client
// repaint the next click before the server round trip.
//
// Button does not touch a Toggle, so it is safe to call from a renderer.
func Button(label string, liked bool) *vdom.VNode {
	pressed := "false"
	next := "true"
	if liked {
		pressed, next = "true", "false"
	}
	return vdom.Button(
		vdom.Type("button"),
		vdom.Classes("like-btn", vdom.ClassIf(liked, "liked")),
		vdom.AriaPressed(pressed),
		Hints().
			ClassToggle("liked").
			Attr("aria-pressed", next).
			Build(),
		vdom.Text(label),
	)
}

package vdom

import "fmt"

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element with the given tag.
// Arguments can be: nil, Attr, []Attr, *VNode, []*VNode, string.
func El(tag string, args ...any) *VNode {
	return createElement(tag, args)
}

func createElement(tag string, args []any) *VNode {
	node := &VNode{
		Kind:     KindElement,
		Tag:      tag,
		Props:    make(Props),
		Children: make([]*VNode, 0),
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attr:
			node.applyAttr(v)
		case []Attr:
			for _, a := range v {
				node.applyAttr(a)
			}
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, child := range v {
				if child != nil {
					node.Children = append(node.Children, child)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}

	return node
}

// applyAttr stores an attribute. The "key" pseudo-attribute sets Key instead.
func (v *VNode) applyAttr(a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		if s, ok := a.Value.(string); ok {
			v.Key = s
		}
		return
	}
	v.Props[a.Key] = a.Value
}

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Raw creates an unescaped HTML node.
// Use with caution - can lead to XSS if content is user-provided.
func Raw(html string) *VNode {
	return &VNode{
		Kind: KindRaw,
		Text: html,
	}
}

// Fragment groups children without a wrapper element.
func Fragment(children ...any) *VNode {
	node := &VNode{
		Kind:     KindFragment,
		Children: make([]*VNode, 0),
	}
	for _, child := range children {
		switch v := child.(type) {
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}
	return node
}

func Div(args ...any) *VNode { return createElement("div", args) }
func P(args ...any) *VNode { return createElement("p", args) }
func Span(args ...any) *VNode { return createElement("span", args) }
func A(args ...any) *VNode { return createElement("a", args) }
func Img(args ...any) *VNode { return createElement("img", args) }
func Figure(args ...any) *VNode { return createElement("figure", args) }
func Figcaption(args ...any) *VNode { return createElement("figcaption", args) }
func Button(args ...any) *VNode { return createElement("button", args) }
func Input(args ...any) *VNode { return createElement("input", args) }
func Form(args ...any) *VNode { return createElement("form", args) }
func Ul(args ...any) *VNode { return createElement("ul", args) }
func Li(args ...any) *VNode { return createElement("li", args) }
func Strong(args ...any) *VNode { return createElement("strong", args) }
func Em(args ...any) *VNode { return createElement("em", args) }
func Br(args ...any) *VNode { return createElement("br", args) }

package vdom

import "strings"

// attr creates an attribute.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Key sets the element identity used by Diff.
func Key(k string) Attr { return attr("key", k) }

// AttrOf creates an arbitrary attribute.
func AttrOf(name string, value any) Attr { return attr(name, value) }

func ID(id string) Attr { return attr("id", id) }
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }
func Data(key, value string) Attr { return attr("data-"+key, value) }
func Src(url string) Attr { return attr("src", url) }
func Alt(text string) Attr { return attr("alt", text) }
func Href(url string) Attr { return attr("href", url) }
func Name(name string) Attr { return attr("name", name) }
func Value(value string) Attr { return attr("value", value) }
func Type(t string) Attr { return attr("type", t) }
func Disabled() Attr { return attr("disabled", true) }
func Hidden() Attr { return attr("hidden", true) }
func AriaPressed(pressed string) Attr { return attr("aria-pressed", pressed) }
func AriaLabel(label string) Attr { return attr("aria-label", label) }
func AriaBusy(busy bool) Attr { return attr("aria-busy", busy) }
func ContentEditable(editable bool) Attr { return attr("contenteditable", editable) }

// ClassIf conditionally adds a class.
func ClassIf(condition bool, class string) Attr {
	if condition {
		return attr("class", class)
	}
	return Attr{}
}

// AttrIf conditionally applies an attribute.
func AttrIf(condition bool, a Attr) Attr {
	if condition {
		return a
	}
	return Attr{}
}

// Classes combines class names, skipping empty strings.
//
//	Classes("btn", ClassIf(liked, "liked"))
func Classes(classes ...any) Attr {
	var parts []string
	for _, c := range classes {
		switch v := c.(type) {
		case string:
			if v != "" {
				parts = append(parts, v)
			}
		case Attr:
			if v.Key == "class" {
				if s, ok := v.Value.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return attr("class", strings.Join(parts, " "))
}

package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <img>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindRaw                   // Raw HTML (dangerous)
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// KeyAttr is the HTML attribute that carries an element's Key.
const KeyAttr = "data-key"

// VNode is a document node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "img")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Element identity
	Text     string   // For KindText and KindRaw
}

// Props holds attributes.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// IsElement reports whether v is an element with the given tag.
// An empty tag matches any element.
func (v *VNode) IsElement(tag string) bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	return tag == "" || v.Tag == tag
}

// GetAttr returns the string form of an attribute.
func (v *VNode) GetAttr(name string) (string, bool) {
	if v == nil || v.Props == nil {
		return "", false
	}
	val, ok := v.Props[name]
	if !ok {
		return "", false
	}
	return propToString(val), true
}

// SetAttr sets an attribute, allocating Props if needed.
func (v *VNode) SetAttr(name string, value any) {
	if v.Props == nil {
		v.Props = make(Props)
	}
	v.Props[name] = value
}

// RemoveAttr deletes an attribute.
func (v *VNode) RemoveAttr(name string) {
	delete(v.Props, name)
}

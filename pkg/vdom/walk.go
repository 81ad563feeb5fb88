package vdom

// Walk visits n and its descendants in document order.
// Returning false from fn skips that node's children.
func Walk(n *VNode, fn func(*VNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Clone returns a deep copy of n.
func Clone(n *VNode) *VNode {
	if n == nil {
		return nil
	}
	c := &VNode{
		Kind: n.Kind,
		Tag:  n.Tag,
		Key:  n.Key,
		Text: n.Text,
	}
	if n.Props != nil {
		c.Props = make(Props, len(n.Props))
		for k, v := range n.Props {
			c.Props[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*VNode, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = Clone(child)
		}
	}
	return c
}

// Index maps every keyed element under root to its node.
func Index(root *VNode) map[string]*VNode {
	idx := make(map[string]*VNode)
	Walk(root, func(n *VNode) bool {
		if n.Kind == KindElement && n.Key != "" {
			idx[n.Key] = n
		}
		return true
	})
	return idx
}

// Find returns the first element under root with the given key.
func Find(root *VNode, key string) *VNode {
	var found *VNode
	Walk(root, func(n *VNode) bool {
		if found != nil {
			return false
		}
		if n.Kind == KindElement && n.Key == key {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindParent returns the node whose Children contain the element with key.
func FindParent(root *VNode, key string) (*VNode, int) {
	var parent *VNode
	index := -1
	Walk(root, func(n *VNode) bool {
		if parent != nil {
			return false
		}
		for i, c := range n.Children {
			if c.Kind == KindElement && c.Key == key {
				parent, index = n, i
				return false
			}
		}
		return true
	})
	return parent, index
}

// Elements returns every element under n (n included) with the given tag.
func Elements(n *VNode, tag string) []*VNode {
	var out []*VNode
	Walk(n, func(v *VNode) bool {
		if v.IsElement(tag) {
			out = append(out, v)
		}
		return true
	})
	return out
}

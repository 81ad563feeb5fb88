package vdom

import (
	"fmt"
	"reflect"
	"strconv"
)

// Diff compares two trees and returns the patches needed to transform prev into next.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, "", &patches)
	return patches
}

// diff recursively compares nodes and appends patches.
// parentKey is the key of the enclosing element, used for text patches.
func diff(prev, next *VNode, parentKey string, patches *[]Patch) {
	if prev == nil && next == nil {
		return
	}

	if prev == nil {
		*patches = append(*patches, Patch{
			Op:        PatchInsertNode,
			ParentKey: parentKey,
			Node:      next,
		})
		return
	}

	if next == nil {
		*patches = append(*patches, Patch{
			Op:  PatchRemoveNode,
			Key: prev.Key,
			Old: prev,
		})
		return
	}

	if prev.Kind != next.Kind {
		replace(prev, next, parentKey, patches)
		return
	}

	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			*patches = append(*patches, Patch{
				Op:    PatchSetText,
				Key:   parentKey,
				Value: next.Text,
			})
		}
	case KindRaw:
		if prev.Text != next.Text {
			replace(prev, next, parentKey, patches)
		}
	case KindElement:
		if prev.Tag != next.Tag || prev.Key != next.Key {
			replace(prev, next, parentKey, patches)
			return
		}
		diffProps(prev, next, patches)
		diffChildren(prev.Children, next.Children, prev.Key, patches)
	case KindFragment:
		diffChildren(prev.Children, next.Children, parentKey, patches)
	}
}

func replace(prev, next *VNode, parentKey string, patches *[]Patch) {
	*patches = append(*patches, Patch{
		Op:        PatchReplaceNode,
		Key:       prev.Key,
		ParentKey: parentKey,
		Node:      next,
		Old:       prev,
	})
}

// diffProps compares and patches attributes.
func diffProps(prev, next *VNode, patches *[]Patch) {
	for key, prevVal := range prev.Props {
		nextVal, exists := next.Props[key]
		if !exists {
			*patches = append(*patches, Patch{
				Op:   PatchRemoveAttr,
				Key:  prev.Key,
				Attr: key,
				Node: next,
				Old:  prev,
			})
		} else if !propsEqual(prevVal, nextVal) {
			*patches = append(*patches, Patch{
				Op:    PatchSetAttr,
				Key:   prev.Key,
				Attr:  key,
				Value: propToString(nextVal),
				Node:  next,
				Old:   prev,
			})
		}
	}

	for key, nextVal := range next.Props {
		if _, exists := prev.Props[key]; !exists {
			*patches = append(*patches, Patch{
				Op:    PatchSetAttr,
				Key:   prev.Key,
				Attr:  key,
				Value: propToString(nextVal),
				Node:  next,
				Old:   prev,
			})
		}
	}
}

// diffChildren reconciles two child lists. Keyed children are matched by key
// wherever they sit. Unkeyed children are matched in order against the
// unkeyed children of the other list.
func diffChildren(prev, next []*VNode, parentKey string, patches *[]Patch) {
	prevKeyed := make(map[string]int)
	var prevUnkeyed []int
	for i, child := range prev {
		if child.Key != "" {
			prevKeyed[child.Key] = i
		} else {
			prevUnkeyed = append(prevUnkeyed, i)
		}
	}

	matched := make(map[int]bool)
	unkeyedCursor := 0

	for nextIdx, nextChild := range next {
		prevIdx := -1
		if nextChild.Key != "" {
			if i, ok := prevKeyed[nextChild.Key]; ok && !matched[i] {
				prevIdx = i
			}
		} else if unkeyedCursor < len(prevUnkeyed) {
			prevIdx = prevUnkeyed[unkeyedCursor]
			unkeyedCursor++
		}

		if prevIdx < 0 {
			*patches = append(*patches, Patch{
				Op:        PatchInsertNode,
				ParentKey: parentKey,
				Index:     nextIdx,
				Node:      nextChild,
			})
			continue
		}

		matched[prevIdx] = true
		prevChild := prev[prevIdx]
		if prevIdx != nextIdx && prevChild.Key != "" {
			*patches = append(*patches, Patch{
				Op:        PatchMoveNode,
				Key:       prevChild.Key,
				ParentKey: parentKey,
				Index:     nextIdx,
			})
		}
		diff(prevChild, nextChild, parentKey, patches)
	}

	for i, prevChild := range prev {
		if !matched[i] {
			*patches = append(*patches, Patch{
				Op:  PatchRemoveNode,
				Key: prevChild.Key,
				Old: prevChild,
			})
		}
	}
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return av == bv
		}
		return propToString(a) == propToString(b)
	case bool:
		if bv, ok := b.(bool); ok {
			return av == bv
		}
		return false
	case int:
		if bv, ok := b.(int); ok {
			return av == bv
		}
		return false
	case nil:
		return b == nil
	}
	return reflect.DeepEqual(a, b)
}

// propToString converts a prop value to its attribute string.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Package vdom provides the in-memory document tree used by the editor and
// the rendered widgets.
//
// # Core Types
//
// VNode represents elements, text, fragments and raw HTML. Props holds an
// element's attributes. Every element in an editor document carries a Key,
// which is its identity across edits: two trees are reconciled by key, so an
// element that moves keeps its identity and an element that disappears is
// reported as removed.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Figure(Key("f1"),
//	    Img(Key("i1"), Src("/img/a.png"), Data("ref", "/img/a.png")),
//	    P(Text("caption")),
//	)
//
// # Parsing
//
// ParseHTML turns the editor's HTML data into a tree. A data-key attribute
// becomes the element's Key.
//
// # Diffing
//
// Diff compares two trees and returns Patch operations. Insert, remove and
// replace patches carry the whole subtree involved, so callers can inspect
// what entered or left the document.
package vdom

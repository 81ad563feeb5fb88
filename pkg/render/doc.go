// Package render converts VNode trees into HTML.
//
// Output is deterministic: attributes are written in sorted order, so the
// same tree always renders to the same bytes. Text and attribute values are
// escaped. Void elements (img, input, br, ...) get no closing tag.
//
// Element keys are written as data-key attributes by default so that HTML
// sent to the editor client parses back into the same identities:
//
//	html := render.RenderToString(doc)
//	again, _ := vdom.ParseHTML(html) // same keys as doc
//
// Use RendererConfig.OmitKeys for content that leaves the editing session,
// such as the body that is finally submitted and stored.
package render

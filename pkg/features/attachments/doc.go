// Package attachments keeps a registry of uploaded image references in step
// with the images embedded in a live editor document.
//
// The Tracker follows the editor's change feed rather than rescanning the
// document. Each registry entry is bound to the document element that
// embeds it, so removing one of two embeds of the same image removes exactly
// one entry:
//
//	ed := editor.New()
//	tr := attachments.New(ed, attachments.WithFieldName("images"))
//	defer tr.Close()
//
//	key, _ := ed.InsertImage("", 0)
//	_ = ed.CompleteUpload(key, "/uploads/a.png") // registry: [/uploads/a.png]
//
// The registry is exposed to form submission as hidden inputs (Fields) or as
// url.Values (Values), in registry order.
//
// # Events
//
//   - Commit: an upload finished. The element is bound to the reference and
//     tagged with the recorded marker attribute.
//   - HandleBatch: a mutation happened. Removed tracked elements drop their
//     entries, inserted tracked elements (undo, duplication, paste) gain one
//     unless already represented.
//
// Batches carrying editor.OriginTracker are the tracker's own writes and are
// skipped. A batch is applied to a copy of the registry and swapped in whole.
package attachments

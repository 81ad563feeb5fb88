// Package editor is an in-process rich document editor model.
//
// The Editor owns a keyed vdom document and reports every accepted mutation
// to subscribers as a changes.Batch. It supplies what an attachment tracker
// needs from a host editor:
//
//   - a queryable document tree (Root, HTML)
//   - a change-batch feed, one batch per mutation (Subscribe)
//   - persistent element attributes (Tag)
//   - an upload-completion event carrying the final reference (OnUpload)
//
// Every mutation carries an origin. Components that both listen to and
// produce mutations tag their own writes (OriginTracker, OriginUpload) and
// skip batches with that origin.
//
// An Editor is not safe for concurrent use. Drive it from a single goroutine,
// typically a loop.Loop. Events raised while subscribers are being notified
// are queued and delivered, in order, once the current delivery finishes.
package editor

// Package devserver is a local stand-in for the portfolio backend.
//
// It serves the endpoints the optimistic toggle and the attachment tracker
// talk to, so both can be exercised end to end without the real service:
//
//	POST /api/{target}/{id}/add-like      {"liked": true, "count": 3}
//	POST /api/{target}/{id}/remove-like   {"liked": false, "count": 2}
//	GET  /api/{target}/{id}/likes         {"liked": false, "count": 2}
//	GET  /api/{target}/{id}/button        like button HTML with optimistic hints
//	POST /image/upload?target=portfolio   {"uploaded": true, "url": "..."}
//	GET  /uploads/...                     stored images (disk store only)
//	GET  /ws/editor?session=<id>          editor session over WebSocket
//	GET  /metrics                         Prometheus exposition
//	GET  /healthz
//
// # Editor sessions
//
// Each WebSocket connection owns an editor.Editor and an attachments.Tracker
// driven from a per-session loop.Loop. Messages are JSON objects with a
// "type" field:
//
//	{"type": "load", "html": "<p>...</p>"}          seed the document (first message only)
//	{"type": "data", "html": "<p>...</p>"}          replace the document
//	{"type": "insert-image", "parent": "", "index": 0}
//	{"type": "upload", "key": "...", "ref": "https://..."}
//	{"type": "submit"}
//
// On connect the server announces the session id with
// {"type": "session", "session": "<id>"}. After every accepted message
// the server answers with the current registry:
//
//	{"type": "fields", "refs": [...], "html": "...", "fields": "<div ...>"}
//
// insert-image additionally answers {"type": "inserted", "key": "..."} and
// submit answers {"type": "saved", "refs": [...], "values": {...}} after
// claiming every registered upload. Rejected messages answer
// {"type": "error", "message": "...", "code": "E011"}. Toasts raised by the
// session arrive as {"type": "event", "name": "folio:toast", "payload": {...}}.
//
// Sessions are kept in a bounded LRU keyed by the session id. Reconnecting
// with the same id replaces the previous session.
package devserver

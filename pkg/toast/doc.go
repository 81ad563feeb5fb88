// Package toast delivers user-facing notices.
//
// Engines never talk to a UI directly. They report through a Notifier, and
// the host decides how a notice reaches the user: a log line, a websocket
// event, or a test recorder.
//
//	n := toast.EmitNotifier{Emitter: conn}
//	toast.Error(n, "Could not save your like")
//
// Over an event stream the notice is sent as a "folio:toast" event whose
// payload carries level, message and optionally title:
//
//	window.addEventListener("folio:toast", (e) => {
//	    const { level, message, title } = e.detail;
//	    showToast(level, message, title);
//	});
package toast

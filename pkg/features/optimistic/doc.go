// Package optimistic implements an optimistic binary toggle, such as a like
// button, reconciled against a confirming server.
//
// A click flips the displayed value at once. Requests are debounced: a burst
// of clicks produces one request, sent a quiet interval after the last click,
// carrying whatever is displayed at that moment. If the displayed value is
// already the confirmed one, nothing is sent.
//
//	tg := optimistic.New(liked, likeapi.NewClient(base, id),
//	    optimistic.WithDispatcher(loop),
//	    optimistic.WithRenderer(func(liked bool) { repaint(liked) }),
//	    optimistic.WithNotifier(notifier),
//	    optimistic.WithBeacon(likeapi.NewBeacon(base, id)),
//	)
//	tg.Click()
//	...
//	tg.Teardown() // page is going away
//
// # State
//
//   - Confirmed: last value acknowledged by the server.
//   - Displayed: value on screen, always the result of the latest click.
//   - Pending: a debounced send is scheduled.
//   - InFlight: the value of the request awaiting a response, if any.
//
// At most one request is in flight. A debounce that fires while a request is
// in flight is deferred; when the response lands the displayed value is
// re-read and sent if it still differs from the confirmed one.
//
// # Failure
//
// A failed request, or a success echoing a different value than requested,
// reverts the display to the confirmed value, cancels any scheduled send,
// repaints and shows an error notice. Nothing is retried; clicking again
// retries.
//
// # Teardown
//
// Teardown sends the displayed value through the Beacon when a send is
// scheduled or the display differs from the confirmed value. The beacon's
// outcome is never observed. The toggle ignores every event afterwards.
//
// # Client Hints
//
// ClassToggle, Attr and the Builder render data-optimistic-* hints so a thin
// client can repaint before the server round trip. Button combines them into
// a like button for a given value and can be used as the renderer:
//
//	optimistic.WithRenderer(func(liked bool) {
//	    paint(render.RenderToString(optimistic.Button("Like", liked)))
//	})
package optimistic

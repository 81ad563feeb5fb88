// Package vtest provides deterministic test doubles for folio's engines.
//
// Engines run timers, network calls and event-loop callbacks. vtest replaces
// each with a version the test drives by hand:
//
//   - FakeClock fires timers only on Advance.
//   - ManualLoop queues dispatched callbacks until Drain or Await.
//   - FakeTransport blocks each request until the test replies.
//   - FakeBeacon records fire-and-forget sends.
//
// # Quick Start
//
//	func TestLike(t *testing.T) {
//	    clock := vtest.NewFakeClock()
//	    ml := vtest.NewManualLoop()
//	    tr := vtest.NewFakeTransport()
//
//	    tg := optimistic.New(false, tr,
//	        optimistic.WithClock(clock),
//	        optimistic.WithDispatcher(ml))
//
//	    tg.Click()
//	    clock.Advance(time.Second)
//	    ml.Drain()
//
//	    call := tr.Next(t)
//	    call.Succeed()
//	    ml.Await(t)
//	}
//
// # Render Assertions
//
//	vtest.ExpectContains(t, optimistic.Button("Like", tg.Displayed()), `aria-pressed="true"`)
package vtest

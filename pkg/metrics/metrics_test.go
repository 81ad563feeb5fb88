package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ToggleClick()
	m.ToggleRequest(ResultSuccess)
	m.ToggleCoalesced()
	m.ToggleBeacon()
	m.AttachmentRegistrySize(3)
	m.AttachmentEvent("inserted")
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.SessionOpened()
	m.SessionClosed()
	m.WebSocketError("read")
}

func TestToggleCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	m.ToggleClick()
	m.ToggleClick()
	m.ToggleRequest(ResultSuccess)
	m.ToggleRequest(ResultFailure)
	m.ToggleRequest(ResultFailure)
	m.ToggleCoalesced()

	if got := testutil.ToFloat64(m.toggleClicks); got != 2 {
		t.Errorf("toggle_clicks_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.toggleRequests.WithLabelValues(ResultFailure)); got != 2 {
		t.Errorf("toggle_requests_total{result=failure} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.toggleCoalesced); got != 1 {
		t.Errorf("toggle_coalesced_total = %v, want 1", got)
	}
}

func TestNamespaceApplied(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg), WithNamespace("site"))
	m.ToggleBeacon()

	expected := `
# HELP site_toggle_beacons_total Teardown beacons sent
# TYPE site_toggle_beacons_total counter
site_toggle_beacons_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "site_toggle_beacons_total"); err != nil {
		t.Errorf("GatherAndCompare() error = %v", err)
	}
}

func TestObserveHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))

	m.ObserveHTTP("POST", "/api/{target}/{id}/add-like", 200, 5*time.Millisecond)
	m.ObserveHTTP("POST", "", 404, time.Millisecond)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "200")); got != 1 {
		t.Errorf("http_requests_total{POST,200} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.httpDuration); got != 2 {
		t.Errorf("http_request_duration_seconds series = %d, want 2", got)
	}
}

func TestRegistrySizeGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(WithRegistry(reg))
	m.AttachmentRegistrySize(4)
	m.AttachmentRegistrySize(2)

	if got := testutil.ToFloat64(m.registrySize); got != 2 {
		t.Errorf("attachments_registry_size = %v, want 2", got)
	}
}

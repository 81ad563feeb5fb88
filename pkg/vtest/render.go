package vtest

import (
	"strings"
	"testing"

	"github.com/devfolio-dev/folio/pkg/render"
	"github.com/devfolio-dev/folio/pkg/vdom"
)

// RenderToString renders a node for assertions.
//
//	html := vtest.RenderToString(tracker.Fields())
func RenderToString(node *vdom.VNode) string {
	return render.RenderToString(node)
}

// ExpectContains asserts that rendered output contains expected substring.
//
//	vtest.ExpectContains(t, optimistic.Button("Like", true), "liked")
func ExpectContains(t testing.TB, node *vdom.VNode, expected string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that rendered output does not contain substring.
func ExpectNotContains(t testing.TB, node *vdom.VNode, unexpected string) {
	t.Helper()
	html := RenderToString(node)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectAttribute asserts that rendered output contains an attribute value.
//
//	vtest.ExpectAttribute(t, optimistic.Button("Like", true), "aria-pressed", "true")
func ExpectAttribute(t testing.TB, node *vdom.VNode, attr, value string) {
	t.Helper()
	html := RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

package render

import (
	"strings"
	"testing"

	"github.com/devfolio-dev/folio/pkg/vdom"
)

func TestRenderToString(t *testing.T) {
	tests := []struct {
		name string
		node *vdom.VNode
		want string
	}{
		{
			name: "text escaping",
			node: vdom.P(`a < b & "c"`),
			want: `<p>a &lt; b &amp; &quot;c&quot;</p>`,
		},
		{
			name: "void element",
			node: vdom.Img(vdom.Src("/a.png"), vdom.Alt("x")),
			want: `<img alt="x" src="/a.png">`,
		},
		{
			name: "sorted attributes and key",
			node: vdom.Img(vdom.Key("i1"), vdom.Src("/a.png"), vdom.Data("ref", "/a.png")),
			want: `<img data-key="i1" data-ref="/a.png" src="/a.png">`,
		},
		{
			name: "boolean attributes",
			node: vdom.Input(vdom.Type("checkbox"), vdom.AttrOf("checked", true), vdom.AttrOf("disabled", false)),
			want: `<input checked type="checkbox">`,
		},
		{
			name: "attribute escaping",
			node: vdom.Div(vdom.AttrOf("title", "a\"b\nc")),
			want: `<div title="a&quot;b&#10;c"></div>`,
		},
		{
			name: "fragment",
			node: vdom.Fragment(vdom.P("one"), vdom.P("two")),
			want: `<p>one</p><p>two</p>`,
		},
		{
			name: "raw",
			node: vdom.Div(vdom.Raw("<b>x</b>")),
			want: `<div><b>x</b></div>`,
		},
		{
			name: "nil",
			node: nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderToString(tt.node); got != tt.want {
				t.Errorf("RenderToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOmitKeys(t *testing.T) {
	r := NewRenderer(RendererConfig{OmitKeys: true})
	got, err := r.RenderToString(vdom.P(vdom.Key("p1"), "x"))
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	if got != "<p>x</p>" {
		t.Errorf("RenderToString() = %q, want %q", got, "<p>x</p>")
	}
}

func TestPretty(t *testing.T) {
	r := NewRenderer(RendererConfig{Pretty: true})
	got, err := r.RenderToString(vdom.Div(vdom.P("x")))
	if err != nil {
		t.Fatalf("RenderToString() error = %v", err)
	}
	if !strings.Contains(got, "\n  <p>x</p>") {
		t.Errorf("pretty output not indented: %q", got)
	}
}

func TestRoundTripThroughParseHTML(t *testing.T) {
	doc := vdom.Fragment(
		vdom.P(vdom.Key("p1"), "hello"),
		vdom.Figure(vdom.Key("f1"), vdom.Img(vdom.Key("i1"), vdom.Src("/a.png"))),
	)
	parsed, err := vdom.ParseHTML(RenderToString(doc))
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	if patches := vdom.Diff(doc, parsed); len(patches) != 0 {
		t.Errorf("Diff(doc, parsed) = %+v, want no patches", patches)
	}
}

package vdom

import "testing"

func TestParseHTML(t *testing.T) {
	root, err := ParseHTML(`<p data-key="p1">Hi <strong>there</strong></p><figure><img src="/a.png" data-ref="/a.png" data-key="i1"></figure><!-- note -->`)
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	if root.Kind != KindFragment {
		t.Fatalf("Kind = %v, want Fragment", root.Kind)
	}
	if len(root.Children) != 2 {
		t.Fatalf("len(Children) = %d, want 2", len(root.Children))
	}

	p := root.Children[0]
	if p.Tag != "p" || p.Key != "p1" {
		t.Errorf("first child = <%s key=%q>, want <p key=p1>", p.Tag, p.Key)
	}
	if _, ok := p.Props[KeyAttr]; ok {
		t.Error("data-key should not remain in Props")
	}

	img := Find(root, "i1")
	if img == nil {
		t.Fatal("Find(i1) = nil")
	}
	if ref, _ := img.GetAttr("data-ref"); ref != "/a.png" {
		t.Errorf("data-ref = %q, want /a.png", ref)
	}
}

func TestParseHTMLEmpty(t *testing.T) {
	root, err := ParseHTML("")
	if err != nil {
		t.Fatalf("ParseHTML() error = %v", err)
	}
	if len(root.Children) != 0 {
		t.Errorf("len(Children) = %d, want 0", len(root.Children))
	}
}

package editor

import (
	"strings"
	"testing"

	"github.com/devfolio-dev/folio/internal/errors"
	"github.com/devfolio-dev/folio/pkg/changes"
	"github.com/devfolio-dev/folio/pkg/vdom"
)

func collect(e *Editor) *[]changes.Batch {
	var batches []changes.Batch
	e.Subscribe(func(b changes.Batch) { batches = append(batches, b) })
	return &batches
}

func TestApplyEmitsOneBatch(t *testing.T) {
	e := New()
	batches := collect(e)

	next := vdom.Fragment(vdom.P("hello"), vdom.Img(vdom.Data("ref", "/a.png")))
	if err := e.Apply(next, OriginUser); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	if len(*batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(*batches))
	}
	b := (*batches)[0]
	if b.Seq != 1 || b.Origin != OriginUser {
		t.Errorf("batch = {Seq:%d Origin:%q}, want {1 \"\"}", b.Seq, b.Origin)
	}
	if len(b.Changes) != 2 {
		t.Errorf("len(Changes) = %d, want 2", len(b.Changes))
	}
	if e.Seq() != 1 {
		t.Errorf("Seq() = %d, want 1", e.Seq())
	}
}

func TestApplyAssignsUniqueKeys(t *testing.T) {
	e := New()
	next := vdom.Fragment(
		vdom.Img(vdom.Key("dup")),
		vdom.Img(vdom.Key("dup")),
		vdom.P(vdom.Span("x")),
	)
	if err := e.Apply(next, OriginUser); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	seen := make(map[string]bool)
	vdom.Walk(e.Root(), func(n *vdom.VNode) bool {
		if n.Kind != vdom.KindElement {
			return true
		}
		if n.Key == "" {
			t.Errorf("<%s> has no key", n.Tag)
		}
		if seen[n.Key] {
			t.Errorf("duplicate key %q", n.Key)
		}
		seen[n.Key] = true
		return true
	})
	if !seen["dup"] {
		t.Error("first occurrence of a key should keep it")
	}
}

func TestApplyDoesNotAliasCallerTree(t *testing.T) {
	e := New()
	next := vdom.Fragment(vdom.P(vdom.Key("p"), "x"))
	_ = e.Apply(next, OriginUser)

	next.Children = nil
	if len(e.Root().Children) != 1 {
		t.Error("editor document changed when caller mutated its tree")
	}
}

func TestValidatorRejects(t *testing.T) {
	e := New(WithValidator(MaxAttachments(1)))
	e.Load(vdom.Fragment(vdom.Img(vdom.Key("a"))))
	batches := collect(e)

	next := e.Root()
	next.Children = append(next.Children, vdom.Img(vdom.Key("b")))
	err := e.Apply(next, OriginUser)
	if !errors.HasCode(err, "E011") {
		t.Fatalf("Apply() error = %v, want E011", err)
	}
	if len(*batches) != 0 {
		t.Errorf("rejected mutation emitted %d batches", len(*batches))
	}
	if vdom.Find(e.Root(), "b") != nil {
		t.Error("rejected mutation changed the document")
	}
}

func TestMaxAttachmentsAllowsShrinking(t *testing.T) {
	v := MaxAttachments(1)
	prev := vdom.Fragment(vdom.Img(), vdom.Img(), vdom.Img())
	next := vdom.Fragment(vdom.Img(), vdom.Img())
	if err := v(prev, next); err != nil {
		t.Errorf("MaxAttachments() on shrinking doc = %v, want nil", err)
	}
}

func TestPlainValidatorErrorWrapped(t *testing.T) {
	e := New(WithValidator(NonEmpty()))
	err := e.Apply(vdom.Fragment(), OriginUser)
	if !errors.HasCode(err, "E010") {
		t.Errorf("Apply() error = %v, want E010", err)
	}
}

func TestInsertImageAndCompleteUpload(t *testing.T) {
	e := New()
	e.Load(vdom.Fragment(vdom.P(vdom.Key("p1"), "a"), vdom.P(vdom.Key("p2"), "b")))
	batches := collect(e)

	var uploads []Upload
	var seqAtUpload uint64
	e.OnUpload(func(u Upload) {
		uploads = append(uploads, u)
		seqAtUpload = e.Seq()
	})

	key, err := e.InsertImage("", 1)
	if err != nil {
		t.Fatalf("InsertImage() error = %v", err)
	}
	root := e.Root()
	if root.Children[1].Key != key || root.Children[1].Tag != "img" {
		t.Fatalf("placeholder not at index 1: %+v", root.Children[1])
	}

	if err := e.CompleteUpload(key, "/u/a.png"); err != nil {
		t.Fatalf("CompleteUpload() error = %v", err)
	}
	if ref, _ := e.Attr(key, changes.DefaultRefAttr); ref != "/u/a.png" {
		t.Errorf("ref attr = %q, want /u/a.png", ref)
	}
	if len(uploads) != 1 || uploads[0] != (Upload{Key: key, Ref: "/u/a.png"}) {
		t.Errorf("uploads = %+v", uploads)
	}
	if len(*batches) != 2 || (*batches)[1].Origin != OriginUpload {
		t.Errorf("batches = %+v, want insert then upload batch", *batches)
	}
	if seqAtUpload != 2 {
		t.Errorf("upload delivered at seq %d, want after the attribute batch (2)", seqAtUpload)
	}
}

func TestInsertImageNested(t *testing.T) {
	e := New()
	e.Load(vdom.Fragment(vdom.Figure(vdom.Key("f"))))
	key, err := e.InsertImage("f", 99)
	if err != nil {
		t.Fatalf("InsertImage() error = %v", err)
	}
	parent, _ := vdom.FindParent(e.Root(), key)
	if parent == nil || parent.Key != "f" {
		t.Errorf("parent = %v, want f", parent)
	}
}

func TestUnknownElement(t *testing.T) {
	e := New()
	tests := []struct {
		name string
		fn   func() error
	}{
		{"InsertImage", func() error { _, err := e.InsertImage("nope", 0); return err }},
		{"CompleteUpload", func() error { return e.CompleteUpload("nope", "r") }},
		{"Tag", func() error { return e.Tag("nope", "a", "b", OriginUser) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.HasCode(err, "E012") {
				t.Errorf("%s() error = %v, want E012", tt.name, err)
			}
		})
	}
}

func TestTagSkipsNoop(t *testing.T) {
	e := New()
	e.Load(vdom.Fragment(vdom.Img(vdom.Key("a"))))
	batches := collect(e)

	_ = e.Tag("a", "data-recorded", "true", OriginTracker)
	_ = e.Tag("a", "data-recorded", "true", OriginTracker)
	if len(*batches) != 1 {
		t.Errorf("batches = %d, want 1", len(*batches))
	}
	if (*batches)[0].Origin != OriginTracker {
		t.Errorf("Origin = %q, want %q", (*batches)[0].Origin, OriginTracker)
	}
}

func TestUnsubscribe(t *testing.T) {
	e := New()
	count := 0
	cancel := e.Subscribe(func(changes.Batch) { count++ })
	_ = e.Apply(vdom.Fragment(vdom.P()), OriginUser)
	cancel()
	_ = e.Apply(vdom.Fragment(), OriginUser)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestNestedMutationDeliveredInOrder(t *testing.T) {
	e := New()
	e.Load(vdom.Fragment(vdom.Img(vdom.Key("a"))))

	var first, second []uint64
	e.Subscribe(func(b changes.Batch) {
		first = append(first, b.Seq)
		if b.Origin == OriginUser {
			_ = e.Tag("a", "data-x", "1", OriginTracker)
		}
	})
	e.Subscribe(func(b changes.Batch) { second = append(second, b.Seq) })

	_ = e.Apply(vdom.Fragment(vdom.Img(vdom.Key("a")), vdom.P()), OriginUser)

	want := []uint64{1, 2}
	for name, got := range map[string][]uint64{"first": first, "second": second} {
		if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("%s subscriber saw %v, want %v", name, got, want)
		}
	}
}

func TestSetDataAndHTML(t *testing.T) {
	e := New()
	if err := e.SetData(`<p data-key="p">hi</p>`, OriginUser); err != nil {
		t.Fatalf("SetData() error = %v", err)
	}
	if got := e.HTML(); got != `<p data-key="p">hi</p>` {
		t.Errorf("HTML() = %q", got)
	}
	if err := e.LoadHTML(`<img data-key="i">`); err != nil {
		t.Fatalf("LoadHTML() error = %v", err)
	}
	if !strings.Contains(e.HTML(), `data-key="i"`) {
		t.Errorf("HTML() after LoadHTML = %q", e.HTML())
	}
}

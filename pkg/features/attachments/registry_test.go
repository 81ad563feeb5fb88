package attachments

import "testing"

func TestRegistryRemoveElement(t *testing.T) {
	r := NewRegistry()
	r.Add("img1", "a")
	r.Add("img1", "b")
	r.Add("img2", "c")

	if _, ok := r.RemoveElement("b"); !ok {
		t.Fatal("RemoveElement(b) = false")
	}
	got := r.Entries()
	want := []Entry{{"img1", "a"}, {"img2", "c"}}
	if len(got) != len(want) {
		t.Fatalf("Entries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Entries()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, ok := r.RemoveElement("b"); ok {
		t.Error("second RemoveElement(b) = true")
	}
	if _, ok := r.RemoveElement(""); ok {
		t.Error("RemoveElement(\"\") = true")
	}
}

func TestRegistryBind(t *testing.T) {
	r := NewRegistry()
	r.Add("img1", "")

	if r.HasElement("x") {
		t.Error("HasElement(x) before Bind = true")
	}
	if !r.Bind("img1", "x") {
		t.Fatal("Bind() = false")
	}
	if !r.HasElement("x") {
		t.Error("HasElement(x) after Bind = false")
	}
	if r.Bind("img1", "y") {
		t.Error("Bind() with no unbound entry = true")
	}
}

func TestRegistryRemoveUnbound(t *testing.T) {
	r := NewRegistry()
	r.Add("img1", "a")
	r.Add("img1", "")

	if !r.RemoveUnbound("img1") {
		t.Fatal("RemoveUnbound() = false")
	}
	if r.Len() != 1 || !r.HasElement("a") {
		t.Errorf("Entries() = %v, want bound entry kept", r.Entries())
	}
}

func TestRegistryCloneIndependent(t *testing.T) {
	r := NewRegistry()
	r.Add("img1", "a")
	c := r.Clone()
	c.Add("img2", "b")

	if r.Len() != 1 {
		t.Errorf("original Len() = %d, want 1", r.Len())
	}
	if !c.Contains("img2") || r.Contains("img2") {
		t.Error("Clone shares storage with original")
	}
}

package vdom

import "testing"

func countOps(patches []Patch) map[PatchOp]int {
	out := make(map[PatchOp]int)
	for _, p := range patches {
		out[p.Op]++
	}
	return out
}

func TestDiffBothNil(t *testing.T) {
	patches := Diff(nil, nil)
	if len(patches) != 0 {
		t.Errorf("Expected 0 patches, got %d", len(patches))
	}
}

func TestDiffNodeRemoved(t *testing.T) {
	prev := Img(Key("i1"))
	patches := Diff(prev, nil)

	if len(patches) != 1 {
		t.Fatalf("Expected 1 patch, got %d", len(patches))
	}
	if patches[0].Op != PatchRemoveNode {
		t.Errorf("Op = %v, want RemoveNode", patches[0].Op)
	}
	if patches[0].Old != prev {
		t.Error("Old does not point at the removed node")
	}
}

func TestDiffTextChange(t *testing.T) {
	prev := P(Key("p1"), "Hello")
	next := P(Key("p1"), "World")

	patches := Diff(prev, next)
	if len(patches) != 1 {
		t.Fatalf("Expected 1 patch, got %d", len(patches))
	}
	if patches[0].Op != PatchSetText {
		t.Errorf("Op = %v, want SetText", patches[0].Op)
	}
	if patches[0].Key != "p1" {
		t.Errorf("Key = %q, want p1", patches[0].Key)
	}
	if patches[0].Value != "World" {
		t.Errorf("Value = %q, want World", patches[0].Value)
	}
}

func TestDiffProps(t *testing.T) {
	prev := Img(Key("i1"), Src("/a.png"), Alt("a"))
	next := Img(Key("i1"), Src("/b.png"), Data("ref", "/b.png"))

	ops := countOps(Diff(prev, next))
	if ops[PatchSetAttr] != 2 {
		t.Errorf("SetAttr count = %d, want 2", ops[PatchSetAttr])
	}
	if ops[PatchRemoveAttr] != 1 {
		t.Errorf("RemoveAttr count = %d, want 1", ops[PatchRemoveAttr])
	}
}

func TestDiffTagChangeReplaces(t *testing.T) {
	prev := P(Key("x"))
	next := Div(Key("x"))

	patches := Diff(prev, next)
	if len(patches) != 1 || patches[0].Op != PatchReplaceNode {
		t.Fatalf("patches = %+v, want one ReplaceNode", patches)
	}
	if patches[0].Old != prev || patches[0].Node != next {
		t.Error("ReplaceNode should carry both the old and the new subtree")
	}
}

func TestDiffKeyedChildren(t *testing.T) {
	tests := []struct {
		name string
		prev []string
		next []string
		want map[PatchOp]int
	}{
		{"append", []string{"a", "b"}, []string{"a", "b", "c"}, map[PatchOp]int{PatchInsertNode: 1}},
		{"remove middle", []string{"a", "b", "c"}, []string{"a", "c"}, map[PatchOp]int{PatchRemoveNode: 1, PatchMoveNode: 1}},
		{"swap", []string{"a", "b"}, []string{"b", "a"}, map[PatchOp]int{PatchMoveNode: 2}},
		{"unchanged", []string{"a", "b"}, []string{"a", "b"}, map[PatchOp]int{}},
		{"replace all", []string{"a"}, []string{"z"}, map[PatchOp]int{PatchInsertNode: 1, PatchRemoveNode: 1}},
	}

	build := func(keys []string) *VNode {
		root := Div(Key("root"))
		for _, k := range keys {
			root.Children = append(root.Children, Img(Key(k)))
		}
		return root
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := countOps(Diff(build(tt.prev), build(tt.next)))
			for op, n := range tt.want {
				if got[op] != n {
					t.Errorf("%v count = %d, want %d", op, got[op], n)
				}
			}
			total := 0
			for _, n := range got {
				total += n
			}
			want := 0
			for _, n := range tt.want {
				want += n
			}
			if total != want {
				t.Errorf("total patches = %d, want %d (%v)", total, want, got)
			}
		})
	}
}

func TestDiffRemovedSubtreeCarriesNestedImages(t *testing.T) {
	prev := Fragment(
		P(Key("p1"), "intro"),
		Figure(Key("f1"), Img(Key("i1"), Data("ref", "/a.png"))),
	)
	next := Fragment(P(Key("p1"), "intro"))

	patches := Diff(prev, next)
	if len(patches) != 1 || patches[0].Op != PatchRemoveNode {
		t.Fatalf("patches = %+v, want one RemoveNode", patches)
	}
	imgs := Elements(patches[0].Old, "img")
	if len(imgs) != 1 || imgs[0].Key != "i1" {
		t.Errorf("nested images = %v, want [i1]", imgs)
	}
}

func TestDiffUnkeyedTextMatchedInOrder(t *testing.T) {
	prev := Fragment("one", Img(Key("i1")), "two")
	next := Fragment("one", Img(Key("i1")), "three")

	patches := Diff(prev, next)
	if len(patches) != 1 || patches[0].Op != PatchSetText {
		t.Fatalf("patches = %+v, want one SetText", patches)
	}
}

func TestPatchOpString(t *testing.T) {
	if PatchInsertNode.String() != "InsertNode" {
		t.Errorf("String() = %q, want InsertNode", PatchInsertNode.String())
	}
	if PatchOp(0xFF).String() != "Unknown" {
		t.Errorf("String() = %q, want Unknown", PatchOp(0xFF).String())
	}
}

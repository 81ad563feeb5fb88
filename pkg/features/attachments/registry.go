package attachments

import (
	"cmp"
	"slices"
)

// Entry is one embed of a reference.
type Entry struct {
	Ref string

	// Element is the key of the embedding element. Empty means the entry is
	// not yet bound to an element.
	Element string
}

// Registry is an ordered list of entries.
type Registry struct {
	entries []Entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends an entry.
func (r *Registry) Add(ref, element string) {
	r.entries = append(r.entries, Entry{Ref: ref, Element: element})
}

// RemoveElement removes the entry bound to element. It reports the removed
// entry and whether one was found.
func (r *Registry) RemoveElement(element string) (Entry, bool) {
	if element == "" {
		return Entry{}, false
	}
	for i, e := range r.entries {
		if e.Element == element {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return e, true
		}
	}
	return Entry{}, false
}

// RemoveUnbound removes the first unbound entry for ref.
func (r *Registry) RemoveUnbound(ref string) bool {
	for i, e := range r.entries {
		if e.Element == "" && e.Ref == ref {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Bind attaches element to the first unbound entry for ref. It reports
// whether such an entry existed.
func (r *Registry) Bind(ref, element string) bool {
	for i, e := range r.entries {
		if e.Element == "" && e.Ref == ref {
			r.entries[i].Element = element
			return true
		}
	}
	return false
}

// Contains reports whether any entry holds ref.
func (r *Registry) Contains(ref string) bool {
	for _, e := range r.entries {
		if e.Ref == ref {
			return true
		}
	}
	return false
}

// HasElement reports whether an entry is bound to element.
func (r *Registry) HasElement(element string) bool {
	if element == "" {
		return false
	}
	for _, e := range r.entries {
		if e.Element == element {
			return true
		}
	}
	return false
}

// order sorts the entries by the position of their element. An entry whose
// element has no position stays behind the entry it followed.
func (r *Registry) order(pos map[string]int) {
	type ranked struct {
		rank  int
		entry Entry
	}
	list := make([]ranked, len(r.entries))
	rank := -1
	for i, e := range r.entries {
		if p, ok := pos[e.Element]; ok && e.Element != "" {
			rank = p
		}
		list[i] = ranked{rank: rank, entry: e}
	}
	slices.SortStableFunc(list, func(a, b ranked) int {
		return cmp.Compare(a.rank, b.rank)
	})
	for i, item := range list {
		r.entries[i] = item.entry
	}
}

// Refs returns the references in registry order.
func (r *Registry) Refs() []string {
	refs := make([]string, len(r.entries))
	for i, e := range r.entries {
		refs[i] = e.Ref
	}
	return refs
}

// Entries returns a copy of the entries.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Clone returns an independent copy.
func (r *Registry) Clone() *Registry {
	return &Registry{entries: r.Entries()}
}

package match

// Index holds pre-normalized reference entries in input order.
type Index struct {
	entries []Entry
	keys    map[string]bool
}

// Index builds an index from raw reference names. Names that normalize to
// nothing are skipped; duplicate keys keep their first occurrence.
func (m *Matcher) Index(names []string) *Index {
	idx := &Index{keys: make(map[string]bool, len(names))}
	for _, raw := range names {
		idx.add(m.Entry(raw))
	}
	return idx
}

// VariantIndex builds an index from raw reference cells that may list more
// than one company ("Melkweg|Fritom"). Every variant becomes its own entry
// and keeps the original cell as Raw.
func (m *Matcher) VariantIndex(cells []string) *Index {
	idx := &Index{keys: make(map[string]bool, len(cells))}
	for _, raw := range cells {
		for _, v := range m.norm.Variants(raw) {
			e := m.Entry(v)
			e.Raw = raw
			idx.add(e)
		}
	}
	return idx
}

func (idx *Index) add(e Entry) {
	if e.Name == "" || idx.keys[e.Key] {
		return
	}
	idx.keys[e.Key] = true
	idx.entries = append(idx.entries, e)
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Entries returns a copy of the entries in input order.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	out := make([]Entry, len(idx.entries))
	copy(out, idx.entries)
	return out
}

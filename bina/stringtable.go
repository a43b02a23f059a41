package bina

// StringTable interns the strings written by a BINA writer. Each distinct
// string is stored once and every field referring to it points at that copy.
// A table lives for one write.
type StringTable struct {
	index   map[string]int
	entries []stringEntry
}

type stringEntry struct {
	s      string
	fields []Offset
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

func (t *StringTable) add(s string, field Offset) {
	i, ok := t.index[s]
	if !ok {
		i = len(t.entries)
		t.index[s] = i
		t.entries = append(t.entries, stringEntry{s: s})
	}
	t.entries[i].fields = append(t.entries[i].fields, field)
}

// Len returns the number of distinct strings.
func (t *StringTable) Len() int { return len(t.entries) }

// Strings returns the distinct strings in the order they were first added.
func (t *StringTable) Strings() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.s
	}
	return out
}

// write appends every string null-terminated, binds the referring fields
// and pads the table to four bytes.
func (t *StringTable) write(w *Writer) error {
	for _, e := range t.entries {
		pos := w.arena.Append(append([]byte(e.s), 0))
		for _, f := range e.fields {
			if err := w.bind(f, pos); err != nil {
				return err
			}
		}
	}
	w.arena.Align(4)
	return nil
}

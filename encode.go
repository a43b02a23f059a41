package pacx

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-kit/log/level"

	"github.com/logicossoftware/go-pacx/bina"
)

// Write encodes a into w.
//
// The archive is laid out in memory first:
//  1. The 0x30-byte header is reserved
//  2. The type tree and every file tree are written, followed by the data
//     entries, 16-byte aligned, then the proxy table
//  3. Strings are interned into the string table and every offset field is
//     recorded in the offset table
//  4. Big-endian archives are byte-swapped and all offsets are made
//     relative to the file start
//  5. The header is filled in from the section boundaries
//
// The finished buffer is written to w in one call, wrapped in a transport
// compression if WithCompression is given.
//
// Write returns ErrValidation if a is malformed and ErrLimitExceeded if it
// exceeds the configured limits.
func Write(w io.Writer, a *Archive, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	b, err := encodeArchive(a, cfg)
	if err != nil {
		return err
	}
	if cfg.compression != compAuto {
		if b, err = compress(cfg.compression, b); err != nil {
			return err
		}
	}
	_, err = w.Write(b)
	return err
}

// WriteTo implements io.WriterTo.
func (a *Archive) WriteTo(w io.Writer) (int64, error) {
	b, err := encodeArchive(a, newWriteConfig(nil))
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

func encodeArchive(a *Archive, cfg writeConfig) ([]byte, error) {
	if err := validateArchive(a, cfg.limits); err != nil {
		return nil, err
	}

	arena := bina.NewArena(make([]byte, bodyStart, bodyStart+estimateSize(a)))
	st := bina.NewStringTable()
	w := bina.NewBINAWriter(arena, origin, st)

	tree, entries := buildTree(a)
	if _, err := w.WriteRecursive(tree); err != nil {
		return nil, fmt.Errorf("pacx: write trees: %w", err)
	}

	var s sections
	w.Align(dataAlignment)
	s.data = w.Tell()
	var depend int64 = -1
	for _, e := range entries {
		pos, err := w.Place(e.anchor, e.obj)
		if err != nil {
			return nil, fmt.Errorf("pacx: write data entry: %w", err)
		}
		if _, ok := e.obj.(*dependEntry); ok {
			depend = pos
		}
	}
	w.Align(dataAlignment)

	s.proxy = w.Tell()
	if len(a.Proxies) > 0 {
		if _, err := w.WriteRecursive(newProxyTable(a.Proxies)); err != nil {
			return nil, fmt.Errorf("pacx: write proxy table: %w", err)
		}
	}

	s.str = w.Tell()
	table, err := w.Finish()
	if err != nil {
		return nil, fmt.Errorf("pacx: write string table: %w", err)
	}
	s.offset = w.Tell()
	enc, err := table.Encode(origin)
	if err != nil {
		return nil, fmt.Errorf("pacx: write offset table: %w", err)
	}
	arena.Append(enc)
	s.end = w.Tell()
	if uint64(s.end) > cfg.limits.MaxArchiveSize {
		return nil, fmt.Errorf("%w: archive is %d bytes", ErrLimitExceeded, s.end)
	}

	if a.BigEndian {
		if err := swapBody(arena, s, depend, bina.FromNative); err != nil {
			return nil, fmt.Errorf("pacx: byte-swap body: %w", err)
		}
	}
	if err := table.Unfix(arena, origin, bina.Width32, a.BigEndian); err != nil {
		return nil, fmt.Errorf("pacx: relocate offsets: %w", err)
	}
	if err := writeHeader(arena, s.header(a.BigEndian)); err != nil {
		return nil, err
	}

	level.Debug(cfg.logger).Log(
		"msg", "wrote archive",
		"size", s.end,
		"types", len(a.Types),
		"proxies", len(a.Proxies),
		"splits", len(a.Splits),
		"strings", st.Len(),
		"offsets", len(table),
		"big_endian", a.BigEndian,
	)
	return arena.Bytes(), nil
}

// swapBody converts every structure in the body between big-endian and the
// arena's little-endian order. Offsets must hold absolute positions.
func swapBody(a *bina.Arena, s sections, depend int64, dir bina.Direction) error {
	if depend >= 0 {
		if err := bina.SwapRecursive(a, splitsTableLayout, depend+dataEntrySize, dir); err != nil {
			return err
		}
	}
	if err := bina.SwapRecursive(a, typesTreeLayout, bodyStart, dir); err != nil {
		return err
	}
	if s.str > s.proxy {
		return bina.SwapRecursive(a, proxyTableLayout, s.proxy, dir)
	}
	return nil
}

func estimateSize(a *Archive) int {
	n := 0
	for _, t := range a.Types {
		n += 16 + len(t.Name)
		for _, f := range t.Files {
			n += 8 + dataEntrySize + dataAlignment + len(f.Data) + len(f.Name)
		}
	}
	return n + 16*len(a.Proxies)
}

// pendingEntry is a data entry waiting to be placed after the trees.
type pendingEntry struct {
	anchor *bina.Anchor
	obj    bina.Object
}

// buildTree returns the type tree for a and the data entries its file nodes
// link to, in file order. The split list, if any, becomes its own type.
func buildTree(a *Archive) (*typesTree, []pendingEntry) {
	types := a.Types
	if len(a.Splits) > 0 {
		name := a.SplitsName
		if name == "" {
			name = DefaultSplitsName
		}
		dep := Type{Name: SplitsTypeName, Files: []File{{Name: name}}}
		i, _ := slices.BinarySearchFunc(types, SplitsTypeName, func(t Type, name string) int {
			return strings.Compare(t.Name, name)
		})
		types = slices.Insert(slices.Clone(types), i, dep)
	}

	tree := &typesTree{}
	var entries []pendingEntry
	for _, t := range types {
		files := &filesTree{}
		for _, f := range t.Files {
			fn := &fileNode{name: f.Name, anchor: &bina.Anchor{}}
			files.files = append(files.files, fn)
			var obj bina.Object = &dataEntry{file: f}
			if t.Name == SplitsTypeName {
				obj = &dependEntry{splits: a.Splits}
			}
			entries = append(entries, pendingEntry{anchor: fn.anchor, obj: obj})
		}
		tree.types = append(tree.types, &typeNode{name: t.Name, files: files})
	}
	return tree, entries
}

type typesTree struct {
	types []*typeNode
}

func (t *typesTree) WriteFields(f *bina.FieldWriter) {
	elems := make([]bina.Object, len(t.types))
	for i, n := range t.types {
		elems[i] = n
	}
	f.Array(bina.Width32, 4, elems)
}

type typeNode struct {
	name  string
	files *filesTree
}

func (n *typeNode) WriteFields(f *bina.FieldWriter) {
	f.String(bina.Width32, n.name)
	f.Ref(bina.Width32, n.files)
}

type filesTree struct {
	files []*fileNode
}

func (t *filesTree) WriteFields(f *bina.FieldWriter) {
	elems := make([]bina.Object, len(t.files))
	for i, n := range t.files {
		elems[i] = n
	}
	f.Array(bina.Width32, 4, elems)
}

// fileNode links to its data entry, which is placed after every tree.
type fileNode struct {
	name   string
	anchor *bina.Anchor
}

func (n *fileNode) WriteFields(f *bina.FieldWriter) {
	f.String(bina.Width32, n.name)
	f.Link(bina.Width32, n.anchor)
}

type dataEntry struct {
	file File
}

func (e *dataEntry) WriteFields(f *bina.FieldWriter) {
	f.U32(uint32(len(e.file.Data)))
	f.U32(e.file.Unknown1)
	f.U32(e.file.Unknown2)
	f.U8(uint8(e.file.flags()))
	f.Pad(3)
	f.Bytes(e.file.Data)
}

func (e *dataEntry) Alignment() int { return dataAlignment }

// dependEntry is the data entry holding the split list. Its payload is a
// SplitsEntryTable, so its size is only known once the table is written.
type dependEntry struct {
	splits []string
}

func (e *dependEntry) WriteFields(f *bina.FieldWriter) {
	f.Placeholder32()
	f.U32(0)
	f.U32(0)
	f.U8(uint8(DataFlagsNone))
	f.Pad(3)
	elems := make([]bina.Object, len(e.splits))
	for i, s := range e.splits {
		elems[i] = splitEntry(s)
	}
	f.RefArray(bina.Width32, elems)
	f.U32(uint32(len(e.splits)))
}

func (e *dependEntry) Alignment() int { return dataAlignment }

func (e *dependEntry) FinishWrite(w *bina.Writer, start, end int64) error {
	return w.PatchU32(start, uint32(end-start-dataEntrySize))
}

type splitEntry string

func (s splitEntry) WriteFields(f *bina.FieldWriter) {
	f.String(bina.Width32, string(s))
}

type proxyTable struct {
	entries []bina.Object
}

func newProxyTable(proxies []Proxy) *proxyTable {
	t := &proxyTable{entries: make([]bina.Object, len(proxies))}
	for i, p := range proxies {
		t.entries[i] = proxyEntry(p)
	}
	return t
}

func (t *proxyTable) WriteFields(f *bina.FieldWriter) {
	f.Array(bina.Width32, 4, t.entries)
}

type proxyEntry Proxy

func (p proxyEntry) WriteFields(f *bina.FieldWriter) {
	f.String(bina.Width32, p.Extension)
	f.String(bina.Width32, p.Name)
	f.U32(p.Index)
}

package bina

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Object is a value a Writer can lay out. WriteFields appends the object's
// own fields; objects it references are queued through the FieldWriter and
// written after it.
type Object interface {
	WriteFields(f *FieldWriter)
}

// Aligner is implemented by objects that must start on an n-byte boundary.
// Objects without it are aligned to four bytes.
type Aligner interface {
	Alignment() int
}

// Finisher is implemented by objects that patch their own fields once
// everything they reference has been written. start is where the object
// begins and end is the stream position after its children.
type Finisher interface {
	FinishWrite(w *Writer, start, end int64) error
}

var errAnchorUnplaced = errors.New("bina: anchor linked but never placed")

// Writer serializes object graphs into an arena while recording every
// offset field it writes.
//
// Offsets hold absolute arena positions while the graph is being built.
// Callers convert them to origin-relative values with OffsetTable.Unfix
// before the arena is emitted.
type Writer struct {
	arena   *Arena
	origin  int64
	offsets OffsetTable
	strings *StringTable
	anchors []*Anchor
}

// NewWriter returns a writer that stores strings inline, next to the object
// referring to them.
func NewWriter(a *Arena, origin int64) *Writer {
	return &Writer{arena: a, origin: origin}
}

// NewBINAWriter returns a writer that interns strings into st. The table is
// appended by Finish.
func NewBINAWriter(a *Arena, origin int64, st *StringTable) *Writer {
	return &Writer{arena: a, origin: origin, strings: st}
}

func (w *Writer) Arena() *Arena { return w.arena }
func (w *Writer) Origin() int64 { return w.origin }
func (w *Writer) Tell() int64   { return w.arena.Tell() }
func (w *Writer) Align(n int)   { w.arena.Align(n) }

// Offsets returns the offset fields recorded so far, unsorted.
func (w *Writer) Offsets() OffsetTable { return w.offsets }

func (w *Writer) PatchU32(pos int64, v uint32) error {
	return w.arena.PutUint32(pos, v)
}

// bind points field at pos and records it for relocation.
func (w *Writer) bind(field Offset, pos int64) error {
	if pos < w.origin {
		return fmt.Errorf("%w: target %#x before origin %#x", ErrOffsetOverflow, pos, w.origin)
	}
	if uint64(pos-w.origin) > field.width.max() {
		return fmt.Errorf("%w: target %#x from field at %#x", ErrOffsetOverflow, pos, field.pos)
	}
	if err := field.Set(pos); err != nil {
		return err
	}
	w.offsets.Add(field.pos)
	return nil
}

// WriteRecursive appends obj at the end of the stream followed by
// everything it references, and returns where obj starts.
func (w *Writer) WriteRecursive(obj Object) (int64, error) {
	w.arena.Align(alignOf(obj))
	start := w.Tell()
	children, err := w.writeObject(obj)
	if err != nil {
		return 0, err
	}
	if err := w.writeChildren(children); err != nil {
		return 0, err
	}
	return start, finish(w, obj, start)
}

func (w *Writer) writeObject(obj Object) ([]pending, error) {
	f := &FieldWriter{w: w}
	obj.WriteFields(f)
	return f.children, f.err
}

// writeChildren places the objects queued by one object's fields, in field
// order. For arrays every element's own fields are written first, then each
// element's children.
func (w *Writer) writeChildren(children []pending) error {
	for _, p := range children {
		switch p.kind {
		case pendingRef:
			w.arena.Align(alignOf(p.obj))
			if err := w.bind(p.field, w.Tell()); err != nil {
				return err
			}
			if _, err := w.WriteRecursive(p.obj); err != nil {
				return err
			}
		case pendingArray:
			if err := w.writeArray(p); err != nil {
				return err
			}
		case pendingString:
			pos := w.arena.Append(append([]byte(p.s), 0))
			if err := w.bind(p.field, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Writer) writeArray(p pending) error {
	w.arena.Align(alignOf(p.elems[0]))
	if err := w.bind(p.field, w.Tell()); err != nil {
		return err
	}
	starts := make([]int64, len(p.elems))
	children := make([][]pending, len(p.elems))
	for i, e := range p.elems {
		starts[i] = w.Tell()
		c, err := w.writeObject(e)
		if err != nil {
			return err
		}
		children[i] = c
	}
	for i, e := range p.elems {
		if err := w.writeChildren(children[i]); err != nil {
			return err
		}
		if err := finish(w, e, starts[i]); err != nil {
			return err
		}
	}
	return nil
}

// Place writes obj at the end of the stream and resolves every field linked
// to anchor.
func (w *Writer) Place(anchor *Anchor, obj Object) (int64, error) {
	if anchor.placed {
		return 0, errors.New("bina: anchor placed twice")
	}
	w.arena.Align(alignOf(obj))
	anchor.pos, anchor.placed = w.Tell(), true
	for _, f := range anchor.fields {
		if err := w.bind(f, anchor.pos); err != nil {
			return 0, err
		}
	}
	anchor.fields = nil
	return w.WriteRecursive(obj)
}

// Finish appends the string table, if any, and returns the sorted offset
// table.
func (w *Writer) Finish() (OffsetTable, error) {
	for _, a := range w.anchors {
		if !a.placed {
			return nil, errAnchorUnplaced
		}
	}
	if w.strings != nil {
		if err := w.strings.write(w); err != nil {
			return nil, err
		}
	}
	w.offsets.Sort()
	return w.offsets, nil
}

func alignOf(obj Object) int {
	if a, ok := obj.(Aligner); ok {
		return a.Alignment()
	}
	return 4
}

func finish(w *Writer, obj Object, start int64) error {
	if f, ok := obj.(Finisher); ok {
		return f.FinishWrite(w, start, w.Tell())
	}
	return nil
}

// Anchor is a forward reference target: fields linked to it are resolved
// when an object is placed with Writer.Place.
type Anchor struct {
	fields []Offset
	pos    int64
	placed bool
}

// Pos returns where the anchored object was placed.
func (a *Anchor) Pos() (int64, bool) { return a.pos, a.placed }

type pendingKind uint8

const (
	pendingRef pendingKind = iota
	pendingArray
	pendingString
)

type pending struct {
	kind  pendingKind
	field Offset
	obj   Object
	elems []Object
	s     string
}

// FieldWriter appends one object's fields. The first error sticks and is
// reported by the Writer.
type FieldWriter struct {
	w        *Writer
	children []pending
	err      error
}

func (f *FieldWriter) Writer() *Writer { return f.w }

func (f *FieldWriter) U8(v uint8) { f.w.arena.buf = append(f.w.arena.buf, v) }

func (f *FieldWriter) U16(v uint16) {
	f.w.arena.buf = binary.LittleEndian.AppendUint16(f.w.arena.buf, v)
}

func (f *FieldWriter) U32(v uint32) {
	f.w.arena.buf = binary.LittleEndian.AppendUint32(f.w.arena.buf, v)
}

func (f *FieldWriter) U64(v uint64) {
	f.w.arena.buf = binary.LittleEndian.AppendUint64(f.w.arena.buf, v)
}

func (f *FieldWriter) Pad(n int)      { f.w.arena.Grow(n) }
func (f *FieldWriter) Bytes(b []byte) { f.w.arena.Append(b) }

// Placeholder32 reserves a 4-byte field to be patched later and returns its
// position.
func (f *FieldWriter) Placeholder32() int64 { return f.w.arena.Grow(4) }

// Fail records err; the write stops after this object.
func (f *FieldWriter) Fail(err error) {
	if f.err == nil {
		f.err = err
	}
}

func (f *FieldWriter) field(w Width) Offset {
	return NewOffset(f.w.arena, f.w.arena.Grow(int(w)), w)
}

// Ref writes an offset to obj. A nil obj writes a null offset.
func (f *FieldWriter) Ref(w Width, obj Object) {
	fld := f.field(w)
	if obj != nil {
		f.children = append(f.children, pending{kind: pendingRef, field: fld, obj: obj})
	}
}

// Array writes a count of countSize bytes followed by an offset to elems.
func (f *FieldWriter) Array(w Width, countSize int, elems []Object) {
	pos := f.w.arena.Grow(countSize)
	if err := writeUint(f.w.arena, pos, countSize, uint64(len(elems))); err != nil {
		f.Fail(err)
	}
	f.RefArray(w, elems)
}

// RefArray writes only the offset to elems; the caller stores the count.
func (f *FieldWriter) RefArray(w Width, elems []Object) {
	fld := f.field(w)
	if len(elems) > 0 {
		f.children = append(f.children, pending{kind: pendingArray, field: fld, elems: elems})
	}
}

// String writes an offset to s. Empty strings are written as null.
func (f *FieldWriter) String(w Width, s string) {
	fld := f.field(w)
	if s == "" {
		return
	}
	if f.w.strings != nil {
		f.w.strings.add(s, fld)
		return
	}
	f.children = append(f.children, pending{kind: pendingString, field: fld, s: s})
}

// Link writes an offset resolved when anchor is placed.
func (f *FieldWriter) Link(w Width, anchor *Anchor) {
	fld := f.field(w)
	if anchor.placed {
		if err := f.w.bind(fld, anchor.pos); err != nil {
			f.Fail(err)
		}
		return
	}
	if len(anchor.fields) == 0 {
		f.w.anchors = append(f.w.anchors, anchor)
	}
	anchor.fields = append(anchor.fields, fld)
}

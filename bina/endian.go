package bina

import "fmt"

type FieldKind uint8

const (
	FieldScalar FieldKind = iota
	FieldRaw
	FieldRef
	FieldArray
)

// Field describes one member of a structure stored in an arena.
type Field struct {
	Name string
	Kind FieldKind
	// Size is the byte size of scalar and raw fields.
	Size  int
	Width Width
	// CountSize is the byte size of an array's element count. The count
	// precedes the offset unless CountLast is set.
	CountSize int
	CountLast bool
	// Elem describes the referenced object. Nil targets (strings, payload
	// bytes) are opaque and never swapped.
	Elem *Layout
}

func (f Field) size() int {
	switch f.Kind {
	case FieldRef:
		return int(f.Width)
	case FieldArray:
		return int(f.Width) + f.CountSize
	default:
		return f.Size
	}
}

func Uint8(name string) Field  { return Field{Name: name, Kind: FieldScalar, Size: 1} }
func Uint16(name string) Field { return Field{Name: name, Kind: FieldScalar, Size: 2} }
func Uint32(name string) Field { return Field{Name: name, Kind: FieldScalar, Size: 4} }
func Uint64(name string) Field { return Field{Name: name, Kind: FieldScalar, Size: 8} }

// Raw is a run of n bytes kept in file order, such as a signature.
func Raw(name string, n int) Field { return Field{Name: name, Kind: FieldRaw, Size: n} }

func Pad(n int) Field { return Raw("", n) }

func Ref(name string, w Width, elem *Layout) Field {
	return Field{Name: name, Kind: FieldRef, Width: w, Elem: elem}
}

// Array is a count followed by an offset to count consecutive elem values.
func Array(name string, w Width, countSize int, elem *Layout) Field {
	return Field{Name: name, Kind: FieldArray, Width: w, CountSize: countSize, Elem: elem}
}

// ArrayCountLast is an offset followed by its element count.
func ArrayCountLast(name string, w Width, countSize int, elem *Layout) Field {
	f := Array(name, w, countSize, elem)
	f.CountLast = true
	return f
}

// Layout is the byte layout of a structure. Aggregates are described by
// listing their fields; nested structures are reached through Ref and Array
// fields.
type Layout struct {
	Name   string
	Fields []Field
	size   int
}

func NewLayout(name string, fields ...Field) *Layout {
	l := &Layout{Name: name, Fields: fields}
	for _, f := range fields {
		l.size += f.size()
	}
	return l
}

func (l *Layout) Size() int { return l.size }

// FieldOffset returns the byte offset of the named field.
func (l *Layout) FieldOffset(name string) (int, bool) {
	off := 0
	for _, f := range l.Fields {
		if f.Name == name {
			return off, true
		}
		off += f.size()
	}
	return 0, false
}

// Direction selects which way SwapRecursive converts.
type Direction uint8

const (
	// ToNative converts foreign (big-endian) data to arena order.
	ToNative Direction = iota
	// FromNative converts arena order to foreign (big-endian) data.
	FromNative
)

func (d Direction) String() string {
	if d == ToNative {
		return "to-native"
	}
	return "from-native"
}

// Swap byte-reverses the scalar fields and array counts of the structure at
// pos. Referenced objects are not visited. Swap is its own inverse.
func Swap(a *Arena, l *Layout, pos int64) error {
	if err := a.check(pos, l.Size()); err != nil {
		return err
	}
	off := pos
	for _, f := range l.Fields {
		switch f.Kind {
		case FieldScalar:
			if err := a.swapBytes(off, f.Size); err != nil {
				return err
			}
		case FieldArray:
			if err := a.swapBytes(countPos(f, off), f.CountSize); err != nil {
				return err
			}
		}
		off += int64(f.size())
	}
	return nil
}

// SwapRecursive byte-reverses the structure at pos and every structure it
// reaches through references and arrays.
//
// Reference fields must already hold absolute arena positions in arena
// order; they are followed but never swapped here. An array count is
// swapped before it bounds the element walk when converting ToNative, and
// after the walk when converting FromNative, so the walk always sees the
// count in arena order.
func SwapRecursive(a *Arena, l *Layout, pos int64, dir Direction) error {
	s := swapper{a: a, dir: dir, seen: make(map[visit]struct{})}
	return s.swap(l, pos)
}

type visit struct {
	pos int64
	l   *Layout
}

type swapper struct {
	a    *Arena
	dir  Direction
	seen map[visit]struct{}
}

func (s *swapper) swap(l *Layout, pos int64) error {
	if _, ok := s.seen[visit{pos, l}]; ok {
		return nil
	}
	s.seen[visit{pos, l}] = struct{}{}

	if err := s.a.check(pos, l.Size()); err != nil {
		return fmt.Errorf("%s: %w", l.Name, err)
	}
	off := pos
	for _, f := range l.Fields {
		var err error
		switch f.Kind {
		case FieldScalar:
			err = s.a.swapBytes(off, f.Size)
		case FieldRef:
			err = s.ref(f, off)
		case FieldArray:
			err = s.array(f, off)
		}
		if err != nil {
			return err
		}
		off += int64(f.size())
	}
	return nil
}

func (s *swapper) ref(f Field, off int64) error {
	if f.Elem == nil {
		return nil
	}
	target, err := NewOffset(s.a, off, f.Width).Get()
	if err != nil || target == 0 {
		return err
	}
	return s.swap(f.Elem, target)
}

func (s *swapper) array(f Field, off int64) error {
	cp := countPos(f, off)
	if s.dir == ToNative {
		if err := s.a.swapBytes(cp, f.CountSize); err != nil {
			return err
		}
	}
	if f.Elem != nil {
		if err := s.elems(f, off, cp); err != nil {
			return err
		}
	}
	if s.dir == FromNative {
		return s.a.swapBytes(cp, f.CountSize)
	}
	return nil
}

func (s *swapper) elems(f Field, off, cp int64) error {
	n, err := readUint(s.a, cp, f.CountSize)
	if err != nil {
		return err
	}
	target, err := NewOffset(s.a, refPos(f, off), f.Width).Get()
	if err != nil || target == 0 || n == 0 {
		return err
	}
	size := uint64(f.Elem.Size())
	if size == 0 || n > uint64(s.a.Len())/size {
		return fmt.Errorf("%w: %s array of %d elements at %#x", ErrOutOfBounds, f.Name, n, target)
	}
	for i := uint64(0); i < n; i++ {
		if err := s.swap(f.Elem, target+int64(i*size)); err != nil {
			return err
		}
	}
	return nil
}

func countPos(f Field, off int64) int64 {
	if f.CountLast {
		return off + int64(f.Width)
	}
	return off
}

func refPos(f Field, off int64) int64 {
	if f.CountLast {
		return off
	}
	return off + int64(f.CountSize)
}

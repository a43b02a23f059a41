package bina

import (
	"fmt"
	"math"
	"math/bits"
)

// Width is the on-disk size of an offset field in bytes.
type Width uint8

const (
	Width32 Width = 4
	Width64 Width = 8
)

func (w Width) max() uint64 {
	if w == Width32 {
		return math.MaxUint32
	}
	return math.MaxUint64
}

// Offset is a relocatable reference: the field at pos holds the position of
// another object in the same arena. A stored value of zero is null.
//
// Loaded offsets are relative to an origin until Fix makes them absolute.
// Offsets built by a Writer are absolute from the start.
type Offset struct {
	arena *Arena
	pos   int64
	width Width
}

// NewOffset returns the reference field of width w at pos.
func NewOffset(a *Arena, pos int64, w Width) Offset {
	return Offset{arena: a, pos: pos, width: w}
}

// Pos returns the position of the field itself.
func (o Offset) Pos() int64   { return o.pos }
func (o Offset) Width() Width { return o.width }

func (o Offset) raw() (uint64, error) {
	if o.width == Width32 {
		v, err := o.arena.Uint32(o.pos)
		return uint64(v), err
	}
	return o.arena.Uint64(o.pos)
}

func (o Offset) putRaw(v uint64) error {
	if v > o.width.max() {
		return fmt.Errorf("%w: %#x in %d-byte field at %#x", ErrOffsetOverflow, v, o.width, o.pos)
	}
	if o.width == Width32 {
		return o.arena.PutUint32(o.pos, uint32(v))
	}
	return o.arena.PutUint64(o.pos, v)
}

// Get returns the arena position the offset refers to, or 0 when null.
func (o Offset) Get() (int64, error) {
	v, err := o.raw()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%w: offset %#x at %#x", ErrOutOfBounds, v, o.pos)
	}
	return int64(v), nil
}

// Set rebinds the offset to target. A target of zero makes it null.
func (o Offset) Set(target int64) error {
	if target < 0 {
		return fmt.Errorf("%w: negative target %d", ErrOffsetOverflow, target)
	}
	return o.putRaw(uint64(target))
}

func (o Offset) IsNull() bool {
	v, err := o.raw()
	return err == nil && v == 0
}

// Fix turns the relative value read from disk into an absolute arena
// position. When swap is set the stored value is byte-reversed first. Null
// offsets are left untouched.
//
// Fix must run exactly once per field; a second call adds origin again.
func (o Offset) Fix(origin int64, swap bool) error {
	v, err := o.raw()
	if err != nil {
		return err
	}
	if swap {
		v = swapWidth(v, o.width)
	}
	if v == 0 {
		return o.putRaw(0)
	}
	if v > uint64(o.arena.Len()) {
		return fmt.Errorf("%w: offset at %#x holds %#x", ErrOutOfBounds, o.pos, v)
	}
	target := int64(v) + origin
	if target <= 0 || target >= int64(o.arena.Len()) {
		return fmt.Errorf("%w: offset at %#x points to %#x", ErrOutOfBounds, o.pos, target)
	}
	return o.putRaw(uint64(target))
}

// Unfix is the inverse of Fix: it stores the absolute target relative to
// origin, byte-reversed when swap is set.
func (o Offset) Unfix(origin int64, swap bool) error {
	v, err := o.raw()
	if err != nil {
		return err
	}
	if v != 0 {
		if int64(v) < origin {
			return fmt.Errorf("%w: target %#x before origin %#x", ErrOffsetOverflow, v, origin)
		}
		v -= uint64(origin)
	}
	if swap {
		v = swapWidth(v, o.width)
	}
	return o.putRaw(v)
}

// Deref returns a cursor at the referenced object.
func (o Offset) Deref() (*Cursor, error) {
	target, err := o.Get()
	if err != nil {
		return nil, err
	}
	if target == 0 {
		return nil, fmt.Errorf("%w: field at %#x", ErrNullReference, o.pos)
	}
	if err := o.arena.check(target, 0); err != nil {
		return nil, err
	}
	return o.arena.Cursor(target), nil
}

// ArrOffset is a counted reference: an element count followed by an offset
// to the first element. Count size and offset width are independent.
type ArrOffset struct {
	Offset
	countPos  int64
	countSize int
}

// NewArrOffset returns the count-first counted reference at pos.
func NewArrOffset(a *Arena, pos int64, w Width, countSize int) ArrOffset {
	return ArrOffset{
		Offset:    Offset{arena: a, pos: pos + int64(countSize), width: w},
		countPos:  pos,
		countSize: countSize,
	}
}

func (r ArrOffset) Count() (uint64, error) {
	return readUint(r.arena, r.countPos, r.countSize)
}

// Set points the array at target and stores count.
func (r ArrOffset) Set(target int64, count uint64) error {
	if err := writeUint(r.arena, r.countPos, r.countSize, count); err != nil {
		return err
	}
	return r.Offset.Set(target)
}

// Elem returns a cursor at element i, elemSize bytes per element.
func (r ArrOffset) Elem(i uint64, elemSize int) (*Cursor, error) {
	n, err := r.Count()
	if err != nil {
		return nil, err
	}
	if i >= n {
		return nil, fmt.Errorf("%w: element %d of %d", ErrOutOfBounds, i, n)
	}
	c, err := r.Deref()
	if err != nil {
		return nil, err
	}
	pos := c.Pos() + int64(i)*int64(elemSize)
	if err := r.arena.check(pos, elemSize); err != nil {
		return nil, err
	}
	return r.arena.Cursor(pos), nil
}

func swapWidth(v uint64, w Width) uint64 {
	if w == Width32 {
		return uint64(bits.ReverseBytes32(uint32(v)))
	}
	return bits.ReverseBytes64(v)
}

func readUint(a *Arena, pos int64, size int) (uint64, error) {
	switch size {
	case 1:
		v, err := a.Uint8(pos)
		return uint64(v), err
	case 2:
		v, err := a.Uint16(pos)
		return uint64(v), err
	case 4:
		v, err := a.Uint32(pos)
		return uint64(v), err
	case 8:
		return a.Uint64(pos)
	}
	return 0, fmt.Errorf("bina: unsupported integer size %d", size)
}

func writeUint(a *Arena, pos int64, size int, v uint64) error {
	switch size {
	case 1:
		if v > math.MaxUint8 {
			return fmt.Errorf("%w: %d in 1-byte count", ErrOffsetOverflow, v)
		}
		return a.PutUint8(pos, uint8(v))
	case 2:
		if v > math.MaxUint16 {
			return fmt.Errorf("%w: %d in 2-byte count", ErrOffsetOverflow, v)
		}
		return a.PutUint16(pos, uint16(v))
	case 4:
		if v > math.MaxUint32 {
			return fmt.Errorf("%w: %d in 4-byte count", ErrOffsetOverflow, v)
		}
		return a.PutUint32(pos, uint32(v))
	case 8:
		return a.PutUint64(pos, v)
	}
	return fmt.Errorf("bina: unsupported integer size %d", size)
}

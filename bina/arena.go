package bina

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Arena is the single byte buffer a BINA graph lives in.
//
// Data is kept in little-endian order; big-endian files are converted in
// place after loading and before emission.
type Arena struct {
	buf []byte
}

// NewArena wraps b. The arena takes ownership of b.
func NewArena(b []byte) *Arena {
	return &Arena{buf: b}
}

func (a *Arena) Len() int { return len(a.buf) }

// Bytes returns the arena contents. The slice aliases the arena until the
// next append.
func (a *Arena) Bytes() []byte { return a.buf }

// Tell returns the current end of the arena.
func (a *Arena) Tell() int64 { return int64(len(a.buf)) }

func (a *Arena) check(pos int64, n int) error {
	if pos < 0 || n < 0 || pos > int64(len(a.buf)) || int64(len(a.buf))-pos < int64(n) {
		return fmt.Errorf("%w: %d bytes at %#x (arena size %#x)", ErrOutOfBounds, n, pos, len(a.buf))
	}
	return nil
}

// Slice returns n bytes at pos without copying.
func (a *Arena) Slice(pos int64, n int) ([]byte, error) {
	if err := a.check(pos, n); err != nil {
		return nil, err
	}
	return a.buf[pos : pos+int64(n) : pos+int64(n)], nil
}

func (a *Arena) Uint8(pos int64) (uint8, error) {
	if err := a.check(pos, 1); err != nil {
		return 0, err
	}
	return a.buf[pos], nil
}

func (a *Arena) Uint16(pos int64) (uint16, error) {
	if err := a.check(pos, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(a.buf[pos:]), nil
}

func (a *Arena) Uint32(pos int64) (uint32, error) {
	if err := a.check(pos, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(a.buf[pos:]), nil
}

func (a *Arena) Uint64(pos int64) (uint64, error) {
	if err := a.check(pos, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(a.buf[pos:]), nil
}

func (a *Arena) PutUint8(pos int64, v uint8) error {
	if err := a.check(pos, 1); err != nil {
		return err
	}
	a.buf[pos] = v
	return nil
}

func (a *Arena) PutUint16(pos int64, v uint16) error {
	if err := a.check(pos, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(a.buf[pos:], v)
	return nil
}

func (a *Arena) PutUint32(pos int64, v uint32) error {
	if err := a.check(pos, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(a.buf[pos:], v)
	return nil
}

func (a *Arena) PutUint64(pos int64, v uint64) error {
	if err := a.check(pos, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(a.buf[pos:], v)
	return nil
}

// Append copies b to the end of the arena and returns where it landed.
func (a *Arena) Append(b []byte) int64 {
	pos := int64(len(a.buf))
	a.buf = append(a.buf, b...)
	return pos
}

// Grow appends n zero bytes and returns where they start.
func (a *Arena) Grow(n int) int64 {
	pos := int64(len(a.buf))
	a.buf = append(a.buf, make([]byte, n)...)
	return pos
}

// Align pads the arena with zeros up to a multiple of n.
func (a *Arena) Align(n int) {
	if n <= 1 {
		return
	}
	if rem := len(a.buf) % n; rem != 0 {
		a.Grow(n - rem)
	}
}

// CString reads a null-terminated string starting at pos.
func (a *Arena) CString(pos int64) (string, error) {
	if err := a.check(pos, 0); err != nil {
		return "", err
	}
	end := bytes.IndexByte(a.buf[pos:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %#x", ErrOutOfBounds, pos)
	}
	return string(a.buf[pos : pos+int64(end)]), nil
}

// swapBytes reverses n bytes at pos in place.
func (a *Arena) swapBytes(pos int64, n int) error {
	b, err := a.Slice(pos, n)
	if err != nil {
		return err
	}
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return nil
}

// Cursor returns a field reader positioned at pos.
func (a *Arena) Cursor(pos int64) *Cursor {
	return &Cursor{a: a, pos: pos}
}

// Cursor reads consecutive fields from an arena. The first failed read is
// kept and every later read returns zero values.
type Cursor struct {
	a   *Arena
	pos int64
	err error
}

func (c *Cursor) Pos() int64    { return c.pos }
func (c *Cursor) Err() error    { return c.err }
func (c *Cursor) Arena() *Arena { return c.a }

func (c *Cursor) take(n int) int64 {
	if c.err != nil {
		return -1
	}
	if err := c.a.check(c.pos, n); err != nil {
		c.err = err
		return -1
	}
	p := c.pos
	c.pos += int64(n)
	return p
}

func (c *Cursor) U8() uint8 {
	p := c.take(1)
	if p < 0 {
		return 0
	}
	return c.a.buf[p]
}

func (c *Cursor) U16() uint16 {
	p := c.take(2)
	if p < 0 {
		return 0
	}
	return binary.LittleEndian.Uint16(c.a.buf[p:])
}

func (c *Cursor) U32() uint32 {
	p := c.take(4)
	if p < 0 {
		return 0
	}
	return binary.LittleEndian.Uint32(c.a.buf[p:])
}

func (c *Cursor) U64() uint64 {
	p := c.take(8)
	if p < 0 {
		return 0
	}
	return binary.LittleEndian.Uint64(c.a.buf[p:])
}

func (c *Cursor) Skip(n int) {
	c.take(n)
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) []byte {
	p := c.take(n)
	if p < 0 {
		return nil
	}
	return c.a.buf[p : p+int64(n) : p+int64(n)]
}

// Offset returns the reference field at the cursor and moves past it.
func (c *Cursor) Offset(w Width) Offset {
	p := c.take(int(w))
	return Offset{arena: c.a, pos: p, width: w}
}

// Array returns the count-first counted reference at the cursor and moves
// past it.
func (c *Cursor) Array(w Width, countSize int) ArrOffset {
	cp := c.take(countSize)
	op := c.take(int(w))
	return ArrOffset{
		countPos:  cp,
		countSize: countSize,
		Offset:    Offset{arena: c.a, pos: op, width: w},
	}
}

// String reads the reference field at the cursor and resolves it to the
// null-terminated string it points at. Null references yield "".
func (c *Cursor) String(w Width) string {
	o := c.Offset(w)
	if c.err != nil {
		return ""
	}
	target, err := o.Get()
	if err != nil {
		c.err = err
		return ""
	}
	if target == 0 {
		return ""
	}
	s, err := c.a.CString(target)
	if err != nil {
		c.err = err
		return ""
	}
	return s
}

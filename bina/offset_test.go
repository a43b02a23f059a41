package bina

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOffsetFix(t *testing.T) {
	t.Run("little endian", func(t *testing.T) {
		buf := make([]byte, 32)
		binary.LittleEndian.PutUint32(buf[4:], 0x0C)
		a := NewArena(buf)
		o := NewOffset(a, 4, Width32)

		require.NoError(t, o.Fix(8, false))
		got, err := o.Get()
		require.NoError(t, err)
		require.Equal(t, int64(0x14), got)
	})

	t.Run("big endian", func(t *testing.T) {
		buf := make([]byte, 32)
		binary.BigEndian.PutUint32(buf[4:], 0x0C)
		a := NewArena(buf)
		o := NewOffset(a, 4, Width32)

		require.NoError(t, o.Fix(0, true))
		got, err := o.Get()
		require.NoError(t, err)
		require.Equal(t, int64(0x0C), got)
	})

	t.Run("64-bit", func(t *testing.T) {
		buf := make([]byte, 64)
		binary.BigEndian.PutUint64(buf[8:], 0x20)
		a := NewArena(buf)
		o := NewOffset(a, 8, Width64)

		require.NoError(t, o.Fix(0x10, true))
		got, err := o.Get()
		require.NoError(t, err)
		require.Equal(t, int64(0x30), got)
	})

	t.Run("null stays null", func(t *testing.T) {
		a := NewArena(make([]byte, 16))
		o := NewOffset(a, 0, Width32)
		require.NoError(t, o.Fix(0x10, true))
		require.True(t, o.IsNull())
	})

	t.Run("out of range", func(t *testing.T) {
		buf := make([]byte, 16)
		binary.LittleEndian.PutUint32(buf, 0x100)
		o := NewOffset(NewArena(buf), 0, Width32)
		require.ErrorIs(t, o.Fix(0, false), ErrOutOfBounds)
	})

	t.Run("field out of range", func(t *testing.T) {
		o := NewOffset(NewArena(make([]byte, 2)), 0, Width32)
		require.ErrorIs(t, o.Fix(0, false), ErrOutOfBounds)
	})
}

func TestOffsetFixUnfixRoundTrip(t *testing.T) {
	for _, swap := range []bool{false, true} {
		buf := make([]byte, 32)
		order := binary.ByteOrder(binary.LittleEndian)
		if swap {
			order = binary.BigEndian
		}
		order.PutUint32(buf[0:], 0x18)
		want := append([]byte(nil), buf...)

		a := NewArena(buf)
		o := NewOffset(a, 0, Width32)
		require.NoError(t, o.Fix(4, swap))
		require.NoError(t, o.Unfix(4, swap))
		require.Equal(t, want, a.Bytes())
	}
}

func TestOffsetSetOverflow(t *testing.T) {
	a := NewArena(make([]byte, 8))
	require.ErrorIs(t, NewOffset(a, 0, Width32).Set(1<<32), ErrOffsetOverflow)
	require.NoError(t, NewOffset(a, 0, Width64).Set(1<<32))
}

func TestOffsetDeref(t *testing.T) {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf, 8)
	binary.LittleEndian.PutUint32(buf[8:], 0xCAFE)
	a := NewArena(buf)

	c, err := NewOffset(a, 0, Width32).Deref()
	require.NoError(t, err)
	require.Equal(t, uint32(0xCAFE), c.U32())
	require.NoError(t, c.Err())

	_, err = NewOffset(a, 4, Width32).Deref()
	require.ErrorIs(t, err, ErrNullReference)
}

func TestArrOffsetMixedWidths(t *testing.T) {
	// 64-bit count followed by a 32-bit offset.
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:], 2)
	binary.LittleEndian.PutUint32(buf[8:], 16)
	binary.LittleEndian.PutUint32(buf[16:], 7)
	binary.LittleEndian.PutUint32(buf[20:], 9)
	a := NewArena(buf)

	r := NewArrOffset(a, 0, Width32, 8)
	n, err := r.Count()
	require.NoError(t, err)
	require.Equal(t, uint64(2), n)

	c, err := r.Elem(1, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(9), c.U32())

	_, err = r.Elem(2, 4)
	require.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, r.Set(20, 1))
	n, err = r.Count()
	require.NoError(t, err)
	require.Equal(t, uint64(1), n)
	got, err := r.Get()
	require.NoError(t, err)
	require.Equal(t, int64(20), got)
}

func TestCursorStickyError(t *testing.T) {
	a := NewArena([]byte{1, 2, 3})
	c := a.Cursor(0)
	require.Equal(t, uint16(0x0201), c.U16())
	require.Zero(t, c.U32())
	require.ErrorIs(t, c.Err(), ErrOutOfBounds)
	require.Zero(t, c.U8())
	require.Equal(t, int64(2), c.Pos())
}

func TestArenaCString(t *testing.T) {
	a := NewArena([]byte("abc\x00de"))
	s, err := a.CString(0)
	require.NoError(t, err)
	require.Equal(t, "abc", s)

	_, err = a.CString(4)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = a.CString(40)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestArenaAlign(t *testing.T) {
	a := NewArena(nil)
	a.Append([]byte{1, 2, 3, 4, 5})
	a.Align(16)
	require.Equal(t, 16, a.Len())
	a.Align(16)
	require.Equal(t, 16, a.Len())
}

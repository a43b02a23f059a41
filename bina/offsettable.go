package bina

import (
	"fmt"
	"slices"
)

// Packed offset table entry tags. The low six bits of the first byte and
// any following bytes hold the distance to the previous entry in 4-byte
// units, most significant byte first.
const (
	offsetTag6  = 0x40
	offsetTag14 = 0x80
	offsetTag30 = 0xC0
	offsetMask  = 0x3F

	maxDelta6  = 0x3F
	maxDelta14 = 0x3FFF
	maxDelta30 = 0x3FFFFFFF
)

// OffsetTable lists the absolute arena positions of every non-null offset
// field, in increasing order.
type OffsetTable []int64

// Add records an offset field position.
func (t *OffsetTable) Add(pos int64) {
	*t = append(*t, pos)
}

// Sort orders the table and drops duplicate positions.
func (t *OffsetTable) Sort() {
	slices.Sort(*t)
	*t = slices.Compact(*t)
}

// Encode packs the table relative to origin. The result is zero padded to a
// multiple of four bytes, which also terminates it.
func (t OffsetTable) Encode(origin int64) ([]byte, error) {
	out := make([]byte, 0, len(t)+4)
	prev := origin
	for _, pos := range t {
		d := pos - prev
		if d <= 0 {
			return nil, fmt.Errorf("%w: position %#x does not follow %#x", ErrCorruptOffsetTable, pos, prev)
		}
		if d%4 != 0 {
			return nil, fmt.Errorf("%w: position %#x", ErrUnalignedOffset, pos)
		}
		d /= 4
		switch {
		case d <= maxDelta6:
			out = append(out, offsetTag6|byte(d))
		case d <= maxDelta14:
			out = append(out, offsetTag14|byte(d>>8), byte(d))
		case d <= maxDelta30:
			out = append(out, offsetTag30|byte(d>>24), byte(d>>16), byte(d>>8), byte(d))
		default:
			return nil, fmt.Errorf("%w: gap of %#x bytes before %#x", ErrOffsetOverflow, d*4, pos)
		}
		prev = pos
	}
	for len(out)%4 != 0 {
		out = append(out, 0)
	}
	return out, nil
}

// DecodeOffsetTable unpacks an offset table measured from origin. Decoding
// stops at the first zero byte or at the end of b.
func DecodeOffsetTable(b []byte, origin int64) (OffsetTable, error) {
	var t OffsetTable
	pos := origin
	for i := 0; i < len(b); {
		tag := b[i] & offsetTag30
		var d int64
		switch tag {
		case 0:
			return t, nil
		case offsetTag6:
			d = int64(b[i] & offsetMask)
			i++
		case offsetTag14:
			if i+2 > len(b) {
				return nil, fmt.Errorf("%w: truncated entry at byte %d", ErrCorruptOffsetTable, i)
			}
			d = int64(b[i]&offsetMask)<<8 | int64(b[i+1])
			i += 2
		case offsetTag30:
			if i+4 > len(b) {
				return nil, fmt.Errorf("%w: truncated entry at byte %d", ErrCorruptOffsetTable, i)
			}
			d = int64(b[i]&offsetMask)<<24 | int64(b[i+1])<<16 | int64(b[i+2])<<8 | int64(b[i+3])
			i += 4
		}
		if d == 0 {
			return nil, fmt.Errorf("%w: zero delta at byte %d", ErrCorruptOffsetTable, i)
		}
		pos += d * 4
		t = append(t, pos)
	}
	return t, nil
}

// Fix applies Offset.Fix to every listed field. Each field is fixed once.
func (t OffsetTable) Fix(a *Arena, origin int64, w Width, swap bool) error {
	for _, pos := range t {
		if err := NewOffset(a, pos, w).Fix(origin, swap); err != nil {
			return err
		}
	}
	return nil
}

// Unfix applies Offset.Unfix to every listed field.
func (t OffsetTable) Unfix(a *Arena, origin int64, w Width, swap bool) error {
	for _, pos := range t {
		if err := NewOffset(a, pos, w).Unfix(origin, swap); err != nil {
			return err
		}
	}
	return nil
}

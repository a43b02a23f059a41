package bina

import "errors"

var (
	ErrOutOfBounds        = errors.New("bina: access out of bounds")
	ErrNullReference      = errors.New("bina: null reference")
	ErrOffsetOverflow     = errors.New("bina: offset does not fit field width")
	ErrUnalignedOffset    = errors.New("bina: offset field is not 4-byte aligned")
	ErrCorruptOffsetTable = errors.New("bina: corrupt offset table")
)

// Package bina implements the BINA relocation substrate used by Hedgehog
// engine container formats.
//
// BINA files store object graphs exactly as they would be laid out in
// memory: structures hold offsets to other structures, arrays and strings,
// and a trailing offset table lists every field that must be relocated at
// load time. This package keeps that model without raw pointers. Every
// reference is a position inside an [Arena], and every access is bounds
// checked.
//
// # Reading
//
// A loaded file is wrapped in an Arena. The offset table is decoded with
// [DecodeOffsetTable] and applied once with [OffsetTable.Fix], turning the
// stored relative values into absolute arena positions. Big-endian data is
// then converted in place with [SwapRecursive] using a [Layout] that
// describes each structure. After that, [Cursor] reads fields in the
// canonical little-endian order.
//
// # Writing
//
// A [Writer] walks an [Object] graph. Each object writes its own fields, and
// the objects it references are appended after it, one level at a time, with
// every written offset recorded for the offset table. The BINA variant
// interns strings into a [StringTable] so identical strings are stored once.
package bina

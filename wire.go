package pacx

import (
	"bytes"
	"fmt"

	"github.com/logicossoftware/go-pacx/bina"
)

// Layouts of every PACx structure, used to convert big-endian files to and
// from the little-endian order the arena is decoded in.
var (
	binaHeaderLayout = bina.NewLayout("BINAHeader",
		bina.Raw("Signature", 4),
		bina.Raw("Version", 3),
		bina.Raw("EndianFlag", 1),
		bina.Uint32("FileSize"),
		bina.Uint16("NodeCount"),
		bina.Uint16("Reserved"),
	)
	dataNodeLayout = bina.NewLayout("DataNode",
		bina.Raw("Signature", 4),
		bina.Uint32("Size"),
		bina.Uint32("FileDataSize"),
		bina.Uint32("ExtensionTableSize"),
		bina.Uint32("ProxyTableSize"),
		bina.Uint32("StringTableSize"),
		bina.Uint32("OffsetTableSize"),
		bina.Uint8("Unknown1"),
		bina.Pad(3),
	)

	dataEntryLayout = bina.NewLayout("DataEntry",
		bina.Uint32("DataSize"),
		bina.Uint32("Unknown1"),
		bina.Uint32("Unknown2"),
		bina.Uint8("Flags"),
		bina.Pad(3),
	)
	fileNodeLayout = bina.NewLayout("FileNode",
		bina.Ref("Name", bina.Width32, nil),
		bina.Ref("Data", bina.Width32, dataEntryLayout),
	)
	filesTreeLayout = bina.NewLayout("FilesTree",
		bina.Array("Files", bina.Width32, 4, fileNodeLayout),
	)
	typeNodeLayout = bina.NewLayout("TypeNode",
		bina.Ref("Name", bina.Width32, nil),
		bina.Ref("Data", bina.Width32, filesTreeLayout),
	)
	typesTreeLayout = bina.NewLayout("TypesTree",
		bina.Array("Types", bina.Width32, 4, typeNodeLayout),
	)

	proxyEntryLayout = bina.NewLayout("ProxyEntry",
		bina.Ref("Extension", bina.Width32, nil),
		bina.Ref("Name", bina.Width32, nil),
		bina.Uint32("Index"),
	)
	proxyTableLayout = bina.NewLayout("ProxyEntryTable",
		bina.Array("Entries", bina.Width32, 4, proxyEntryLayout),
	)

	splitEntryLayout = bina.NewLayout("SplitEntry",
		bina.Ref("Name", bina.Width32, nil),
	)
	splitsTableLayout = bina.NewLayout("SplitsEntryTable",
		bina.ArrayCountLast("Splits", bina.Width32, 4, splitEntryLayout),
	)
)

// Header is the fixed 0x30-byte prefix of a PACx file: the BINA header and
// the DATA node header with its section sizes.
type Header struct {
	BigEndian          bool
	FileSize           uint32
	NodeCount          uint16
	NodeSize           uint32
	FileDataSize       uint32
	ExtensionTableSize uint32
	ProxyTableSize     uint32
	StringTableSize    uint32
	OffsetTableSize    uint32
	Unknown1           uint8
}

// ParseHeader decodes the header at the start of b without modifying b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < bodyStart {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidHeader, len(b), bodyStart)
	}
	return readHeader(bina.NewArena(bytes.Clone(b[:bodyStart])))
}

// readHeader validates the header in a and converts it to little-endian in
// place.
func readHeader(a *bina.Arena) (Header, error) {
	b := a.Bytes()
	if len(b) < bodyStart {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidHeader, len(b), bodyStart)
	}
	if !bytes.Equal(b[0:4], Signature[:]) {
		return Header{}, ErrInvalidMagic
	}
	if !bytes.Equal(b[4:7], Version[:]) {
		return Header{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, b[4:7])
	}
	var h Header
	switch b[7] {
	case EndianLittle:
	case EndianBig:
		h.BigEndian = true
		if err := swapHeader(a); err != nil {
			return Header{}, err
		}
	default:
		return Header{}, fmt.Errorf("%w: endian flag %#x", ErrInvalidHeader, b[7])
	}

	c := a.Cursor(8)
	h.FileSize = c.U32()
	h.NodeCount = c.U16()
	c.Skip(2)
	sig := c.Bytes(4)
	h.NodeSize = c.U32()
	h.FileDataSize = c.U32()
	h.ExtensionTableSize = c.U32()
	h.ProxyTableSize = c.U32()
	h.StringTableSize = c.U32()
	h.OffsetTableSize = c.U32()
	h.Unknown1 = c.U8()
	if err := c.Err(); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if !bytes.Equal(sig, dataSignature[:]) {
		return Header{}, fmt.Errorf("%w: node signature %q", ErrInvalidHeader, sig)
	}
	if h.NodeCount != 1 {
		return Header{}, fmt.Errorf("%w: node count %d", ErrInvalidHeader, h.NodeCount)
	}
	return h, nil
}

// writeHeader fills the first 0x30 bytes of a from h.
func writeHeader(a *bina.Arena, h Header) error {
	b := a.Bytes()
	if len(b) < bodyStart {
		return fmt.Errorf("%w: arena too short for header", ErrInvalidHeader)
	}
	copy(b[0:4], Signature[:])
	copy(b[4:7], Version[:])
	b[7] = EndianLittle
	if h.BigEndian {
		b[7] = EndianBig
	}
	copy(b[16:20], dataSignature[:])
	puts := []struct {
		pos int64
		v   uint32
	}{
		{8, h.FileSize},
		{20, h.NodeSize},
		{24, h.FileDataSize},
		{28, h.ExtensionTableSize},
		{32, h.ProxyTableSize},
		{36, h.StringTableSize},
		{40, h.OffsetTableSize},
	}
	for _, p := range puts {
		if err := a.PutUint32(p.pos, p.v); err != nil {
			return err
		}
	}
	if err := a.PutUint16(12, h.NodeCount); err != nil {
		return err
	}
	if err := a.PutUint8(44, h.Unknown1); err != nil {
		return err
	}
	if h.BigEndian {
		return swapHeader(a)
	}
	return nil
}

func swapHeader(a *bina.Arena) error {
	if err := bina.Swap(a, binaHeaderLayout, 0); err != nil {
		return err
	}
	return bina.Swap(a, dataNodeLayout, headerSize)
}

// sections records where each part of the body starts while a write is in
// progress.
type sections struct {
	data   int64
	proxy  int64
	str    int64
	offset int64
	end    int64
}

func (s sections) header(bigEndian bool) Header {
	return Header{
		BigEndian:          bigEndian,
		FileSize:           uint32(s.end),
		NodeCount:          1,
		NodeSize:           uint32(s.end - headerSize),
		FileDataSize:       uint32(s.proxy - s.data),
		ExtensionTableSize: uint32(s.data - bodyStart),
		ProxyTableSize:     uint32(s.str - s.proxy),
		StringTableSize:    uint32(s.offset - s.str),
		OffsetTableSize:    uint32(s.end - s.offset),
		Unknown1:           1,
	}
}

// sections derives the section boundaries a header declares and checks that
// they cover the file exactly.
func (h Header) sections() (sections, error) {
	if h.NodeSize != h.FileSize-headerSize {
		return sections{}, fmt.Errorf("%w: node size %d for file size %d", ErrCorruptArchive, h.NodeSize, h.FileSize)
	}
	var s sections
	s.data = bodyStart + int64(h.ExtensionTableSize)
	s.proxy = s.data + int64(h.FileDataSize)
	s.str = s.proxy + int64(h.ProxyTableSize)
	s.offset = s.str + int64(h.StringTableSize)
	s.end = s.offset + int64(h.OffsetTableSize)
	if s.end != int64(h.FileSize) {
		return sections{}, fmt.Errorf("%w: section sizes sum to %d, file size is %d", ErrCorruptArchive, s.end, h.FileSize)
	}
	return s, nil
}

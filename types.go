package pacx

import "strings"

const (
	headerSize    = 0x10
	dataNodeSize  = 0x20
	bodyStart     = headerSize + dataNodeSize
	dataEntrySize = 0x10

	// Offsets in a PACx file are relative to the start of the file, which is
	// where the DATA node would place them with its -16 origin.
	origin = 0

	dataAlignment = 16
)

// Signature is the 4-byte PACx file signature.
var Signature = [4]byte{'P', 'A', 'C', 'x'}

// Version is the only container version this package reads and writes.
var Version = [3]byte{'2', '0', '1'}

var dataSignature = [4]byte{'D', 'A', 'T', 'A'}

const (
	EndianLittle byte = 'L'
	EndianBig    byte = 'B'
)

type DataFlags uint8

const (
	DataFlagsNone DataFlags = 0x00
	// DataFlagsNoData marks an entry whose payload lives in a split archive.
	DataFlagsNoData DataFlags = 0x80
)

// SplitsTypeName is the type under which an archive lists its split files.
// Read surfaces it as Archive.Splits and Write recreates it.
const SplitsTypeName = "pac.d:ResPacDepend"

// DefaultSplitsName names the split list entry when Archive.SplitsName is
// empty.
const DefaultSplitsName = "splits"

// Archive is the in-memory form of a PACx file.
//
// Types and their files are written in slice order. Shipped archives keep
// both sorted by name, see [Archive.Sort].
type Archive struct {
	BigEndian  bool
	Types      []Type
	Proxies    []Proxy
	Splits     []string
	SplitsName string
}

// Type groups files that share an extension and resource type, for example
// "dds:ResTexture".
type Type struct {
	Name  string
	Files []File
}

// Extension returns the part of the type name before the colon.
func (t Type) Extension() string {
	ext, _, _ := strings.Cut(t.Name, ":")
	return ext
}

// ResourceType returns the part of the type name after the colon, or "" if
// there is none.
func (t Type) ResourceType() string {
	_, rt, _ := strings.Cut(t.Name, ":")
	return rt
}

// FileName returns the name f is extracted under. Types without a resource
// type are used as opaque groups and do not add an extension.
func (t Type) FileName(f File) string {
	if !strings.Contains(t.Name, ":") {
		return f.Name
	}
	return f.Name + "." + t.Extension()
}

// File is one data entry. A File with NoData set has no payload here; a
// Proxy says which split archive entry backs it.
type File struct {
	Name     string
	Data     []byte
	NoData   bool
	Unknown1 uint32
	Unknown2 uint32
}

func (f File) flags() DataFlags {
	if f.NoData {
		return DataFlagsNoData
	}
	return DataFlagsNone
}

// Proxy points a no-data entry at its backing entry in a split archive.
// Extension holds the full type name and Index the file's position in that
// type's file list in the split.
type Proxy struct {
	Extension string
	Name      string
	Index     uint32
}

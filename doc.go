// Package pacx reads and writes PACx archives, the resource containers of
// Hedgehog engine games such as Sonic Lost World (container version 201).
//
// # File Format Overview
//
// A PACx file is a BINA file with a single DATA node:
//   - A 16-byte BINA header with the "PACx" signature, the "201" version,
//     an endianness flag ('L' or 'B') and the file size
//   - The DATA node header with the size of each section that follows
//   - A tree of types ("dds:ResTexture") each holding a tree of files
//   - The data entries, each a 16-byte header followed by its payload
//   - An optional proxy table pointing no-data entries at split archives
//   - The string table and the packed offset table
//
// Offsets are stored relative to the start of the file and listed in the
// offset table; see package [github.com/logicossoftware/go-pacx/bina] for
// how they are relocated and how big-endian files are normalized.
//
// # Basic Usage
//
// To create and write an archive:
//
//	a := &pacx.Archive{
//		Types: []pacx.Type{{
//			Name:  "txt:ResRawData",
//			Files: []pacx.File{{Name: "readme", Data: []byte("hello")}},
//		}},
//	}
//	f, _ := os.Create("output.pac")
//	defer f.Close()
//	err := pacx.Write(f, a)
//
// To read one:
//
//	f, _ := os.Open("input.pac")
//	defer f.Close()
//	a, err := pacx.Read(f)
//
// # Split Archives
//
// Large archives keep some payloads in split files ("w1a01.pac.00", ...).
// Entries stored elsewhere carry the no-data flag and a proxy entry naming
// their position in the split. [GetSplitList] lists the splits an archive
// declares and [ExtractFile] loads them to resolve proxies.
//
// # Security Considerations
//
// Every size, count and offset read from a file is checked against the
// loaded buffer and the configured [Limits]. Malformed archives fail with
// [ErrCorruptArchive] instead of reading out of bounds.
package pacx

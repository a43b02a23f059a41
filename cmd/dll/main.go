// Package main provides C-compatible exports for the pacx library.
// Build with: go build -buildmode=c-shared -o pacx.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* error;
} PacxResult;

// Entry for creating archives
typedef struct {
    char* type_name;
    char* name;
    char* data;
    int   data_len;
} CPacxEntry;
*/
import "C"

import (
	"bytes"
	"encoding/json"
	"errors"
	"unsafe"

	"github.com/logicossoftware/go-pacx"
)

func main() {}

// PacxVersion returns the PACx container version supported by this library,
// for example 201.
//
//export PacxVersion
func PacxVersion() C.uint16_t {
	v := 0
	for _, d := range pacx.Version {
		v = v*10 + int(d-'0')
	}
	return C.uint16_t(v)
}

// PacxFreeResult frees memory allocated by other Pacx functions.
// Must be called to avoid memory leaks.
//
//export PacxFreeResult
func PacxFreeResult(result C.PacxResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// PacxFreeString frees a C string allocated by Go.
//
//export PacxFreeString
func PacxFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

// makeResult creates a result with data.
func makeResult(data []byte) C.PacxResult {
	var result C.PacxResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	return result
}

// makeError creates a result with an error message.
func makeError(err error) C.PacxResult {
	var result C.PacxResult
	result.error = C.CString(err.Error())
	return result
}

func decode(data *C.char, dataLen C.int) (*pacx.Archive, error) {
	goData := C.GoBytes(unsafe.Pointer(data), dataLen)
	return pacx.Read(bytes.NewReader(goData))
}

// PacxCreate builds a PACx archive from an array of entries.
// Parameters:
//   - entries: array of CPacxEntry structs
//   - entryCount: number of entries
//   - bigEndian: non-zero to write a big-endian archive
//   - compression: transport compression (0=None, 1=GZIP, 2=ZSTD, 3=LZ4, 4=Brotli)
//
// Entries are grouped by type_name; types and files are sorted by name.
// Compressed output must be decompressed before it is passed to the other
// Pacx functions.
// Returns PacxResult with the archive bytes or error. Call PacxFreeResult when done.
//
//export PacxCreate
func PacxCreate(
	entries *C.CPacxEntry,
	entryCount C.int,
	bigEndian C.int,
	compression C.uint16_t,
) C.PacxResult {
	a := &pacx.Archive{BigEndian: bigEndian != 0}
	index := map[string]int{}

	if entryCount > 0 && entries != nil {
		for _, e := range unsafe.Slice(entries, int(entryCount)) {
			typ := C.GoString(e.type_name)
			i, ok := index[typ]
			if !ok {
				i = len(a.Types)
				index[typ] = i
				a.Types = append(a.Types, pacx.Type{Name: typ})
			}
			a.Types[i].Files = append(a.Types[i].Files, pacx.File{
				Name: C.GoString(e.name),
				Data: C.GoBytes(unsafe.Pointer(e.data), e.data_len),
			})
		}
	}
	a.Sort()

	var buf bytes.Buffer
	if err := pacx.Write(&buf, a, pacx.WithCompression(pacx.Compression(compression))); err != nil {
		return makeError(err)
	}
	return makeResult(buf.Bytes())
}

// PacxList decodes a PACx archive and returns a JSON description of it.
// The JSON structure contains: bigEndian, types (each with name and files),
// proxies and splits. File payloads are reported by size only.
//
//export PacxList
func PacxList(data *C.char, dataLen C.int) C.PacxResult {
	a, err := decode(data, dataLen)
	if err != nil {
		return makeError(err)
	}

	types := make([]map[string]any, len(a.Types))
	for i, t := range a.Types {
		files := make([]map[string]any, len(t.Files))
		for j, f := range t.Files {
			files[j] = map[string]any{
				"name":    f.Name,
				"dataLen": len(f.Data),
				"noData":  f.NoData,
			}
		}
		types[i] = map[string]any{"name": t.Name, "files": files}
	}
	proxies := make([]map[string]any, len(a.Proxies))
	for i, p := range a.Proxies {
		proxies[i] = map[string]any{
			"extension": p.Extension,
			"name":      p.Name,
			"index":     p.Index,
		}
	}
	result := map[string]any{
		"bigEndian": a.BigEndian,
		"types":     types,
		"proxies":   proxies,
		"splits":    a.GetSplitList(""),
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		return makeError(err)
	}
	return makeResult(jsonBytes)
}

// PacxGetEntryData retrieves the payload of one entry.
// Parameters:
//   - data: pointer to PACx file bytes
//   - dataLen: length of the data
//   - typeName: full type name, for example "dds:ResTexture"
//   - name: entry name without extension
//
// Returns PacxResult with the entry data or error. Call PacxFreeResult when done.
//
//export PacxGetEntryData
func PacxGetEntryData(data *C.char, dataLen C.int, typeName *C.char, name *C.char) C.PacxResult {
	a, err := decode(data, dataLen)
	if err != nil {
		return makeError(err)
	}
	typ, want := C.GoString(typeName), C.GoString(name)

	t, ok := a.FindType(typ)
	if !ok {
		return makeError(errors.New("type not found: " + typ))
	}
	for _, f := range t.Files {
		if f.Name != want {
			continue
		}
		if f.NoData {
			return makeError(errors.New("entry stored in a split archive: " + want))
		}
		return makeResult(f.Data)
	}
	return makeError(errors.New("entry not found: " + want))
}

// PacxGetSplitList returns the split archive file names as a JSON array.
// Parameters:
//   - data: pointer to PACx file bytes
//   - dataLen: length of the data
//   - fileName: name of the root archive; split names are resolved next to it
//
//export PacxGetSplitList
func PacxGetSplitList(data *C.char, dataLen C.int, fileName *C.char) C.PacxResult {
	a, err := decode(data, dataLen)
	if err != nil {
		return makeError(err)
	}
	jsonBytes, err := json.Marshal(a.GetSplitList(C.GoString(fileName)))
	if err != nil {
		return makeError(err)
	}
	return makeResult(jsonBytes)
}

// PacxValidate checks that data is a well-formed PACx archive.
// Returns NULL on success, or an error message string on failure.
// Call PacxFreeString on the result if non-NULL.
//
//export PacxValidate
func PacxValidate(data *C.char, dataLen C.int) *C.char {
	if _, err := decode(data, dataLen); err != nil {
		return C.CString(err.Error())
	}
	return nil
}

// PacxGetTypeCount returns the number of types in a PACx archive, not
// counting the split list. Returns -1 on error.
//
//export PacxGetTypeCount
func PacxGetTypeCount(data *C.char, dataLen C.int) C.int {
	a, err := decode(data, dataLen)
	if err != nil {
		return -1
	}
	return C.int(len(a.Types))
}

// PacxGetEntryCount returns the number of entries across all types.
// Returns -1 on error.
//
//export PacxGetEntryCount
func PacxGetEntryCount(data *C.char, dataLen C.int) C.int {
	a, err := decode(data, dataLen)
	if err != nil {
		return -1
	}
	n := 0
	for _, t := range a.Types {
		n += len(t.Files)
	}
	return C.int(n)
}

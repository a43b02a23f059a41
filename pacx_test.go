package pacx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/logicossoftware/go-pacx/bina"
)

func sampleArchive() *Archive {
	return &Archive{
		Types: []Type{
			{Name: "dds:ResTexture", Files: []File{
				{Name: "chr_sonic_body", Data: []byte{'D', 'D', 'S', ' ', 0x7C, 0, 0, 0}},
				{Name: "chr_sonic_eye", Data: []byte("eye"), Unknown1: 7, Unknown2: 9},
			}},
			{Name: "model:ResModel", Files: []File{
				{Name: "chr_sonic", Data: bytes.Repeat([]byte{0xAB}, 37)},
				{Name: "chr_sonic_hd", NoData: true},
			}},
			{Name: "skl.hkx:ResSkeleton", Files: []File{
				{Name: "chr_sonic", Data: []byte("skeleton")},
			}},
		},
		Proxies:    []Proxy{{Extension: "model:ResModel", Name: "chr_sonic_hd", Index: 0}},
		Splits:     []string{"chr_sonic.pac.00"},
		SplitsName: "chr_sonic",
	}
}

var archiveCmp = cmpopts.EquateEmpty()

func encodeSample(t *testing.T, a *Archive) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, a); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n <= 0 {
		return 0, io.ErrClosedPipe
	}
	if len(p) > w.n {
		p = p[:w.n]
	}
	w.n -= len(p)
	return len(p), io.ErrShortWrite
}

func TestWriteReadRoundTrip(t *testing.T) {
	for _, bigEndian := range []bool{false, true} {
		name := "little"
		if bigEndian {
			name = "big"
		}
		t.Run(name, func(t *testing.T) {
			in := sampleArchive()
			in.BigEndian = bigEndian
			b := encodeSample(t, in)

			got, err := Read(bytes.NewReader(b))
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if diff := cmp.Diff(in, got, archiveCmp); diff != "" {
				t.Fatalf("archive mismatch (-want +got):\n%s", diff)
			}

			// Writing the decoded archive again gives the same bytes.
			again := encodeSample(t, got)
			if !bytes.Equal(b, again) {
				t.Fatal("re-encoded archive differs")
			}
		})
	}
}

func TestBigEndianDiffersOnlyInByteOrder(t *testing.T) {
	le := sampleArchive()
	be := sampleArchive()
	be.BigEndian = true
	lb := encodeSample(t, le)
	bb := encodeSample(t, be)
	if len(lb) != len(bb) {
		t.Fatalf("sizes differ: %d vs %d", len(lb), len(bb))
	}
	if bb[7] != EndianBig || lb[7] != EndianLittle {
		t.Fatalf("endian flags %q %q", lb[7], bb[7])
	}
	if got := binary.BigEndian.Uint32(bb[8:]); got != uint32(len(bb)) {
		t.Fatalf("big-endian file size %d", got)
	}
	// The types count and its offset are swapped.
	if binary.LittleEndian.Uint32(lb[0x30:]) != binary.BigEndian.Uint32(bb[0x30:]) {
		t.Fatal("types count not swapped")
	}
	if binary.LittleEndian.Uint32(lb[0x34:]) != binary.BigEndian.Uint32(bb[0x34:]) {
		t.Fatal("types offset not swapped")
	}
}

// One type "RawData" holding "a.txt" with the payload "hello".
func TestRawDataScenario(t *testing.T) {
	a := &Archive{Types: []Type{{Name: "RawData", Files: []File{{Name: "a.txt", Data: []byte("hello")}}}}}
	b := encodeSample(t, a)

	h, err := ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	want := Header{
		FileSize:           0x88,
		NodeCount:          1,
		NodeSize:           0x78,
		FileDataSize:       32, // 16-byte entry header, 5 bytes, padded to 16
		ExtensionTableSize: 32,
		ProxyTableSize:     0,
		StringTableSize:    16,
		OffsetTableSize:    8,
		Unknown1:           1,
	}
	if h != want {
		t.Fatalf("header mismatch\nwant: %#v\ngot:  %#v", want, h)
	}
	if len(b) != int(h.FileSize) {
		t.Fatalf("file is %d bytes", len(b))
	}

	table, err := bina.DecodeOffsetTable(b[0x80:], origin)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(bina.OffsetTable{0x34, 0x38, 0x3C, 0x44, 0x48, 0x4C}, table); diff != "" {
		t.Fatalf("offset table (-want +got):\n%s", diff)
	}

	// The file node at 0x48: name, then data.
	name := binary.LittleEndian.Uint32(b[0x48:])
	if got := string(b[name : name+6]); got != "a.txt\x00" {
		t.Fatalf("file name %q", got)
	}
	data := binary.LittleEndian.Uint32(b[0x4C:])
	if data != 0x50 {
		t.Fatalf("data entry at %#x", data)
	}
	if size := binary.LittleEndian.Uint32(b[data:]); size != 5 {
		t.Fatalf("data size %d", size)
	}
	if got := string(b[data+16 : data+21]); got != "hello" {
		t.Fatalf("payload %q", got)
	}
	if got := string(b[0x70:0x80]); got != "RawData\x00a.txt\x00\x00\x00" {
		t.Fatalf("string table %q", got)
	}
}

func TestSectionSizesCoverFile(t *testing.T) {
	for _, bigEndian := range []bool{false, true} {
		a := sampleArchive()
		a.BigEndian = bigEndian
		b := encodeSample(t, a)
		h, err := ParseHeader(b)
		if err != nil {
			t.Fatal(err)
		}
		sum := uint32(bodyStart) + h.ExtensionTableSize + h.FileDataSize + h.ProxyTableSize + h.StringTableSize + h.OffsetTableSize
		if sum != h.FileSize || int(h.FileSize) != len(b) {
			t.Fatalf("sizes sum to %d, header says %d, file is %d", sum, h.FileSize, len(b))
		}
		if h.NodeSize != h.FileSize-headerSize {
			t.Fatalf("node size %d", h.NodeSize)
		}
		if h.ExtensionTableSize%dataAlignment != 0 || h.FileDataSize%dataAlignment != 0 {
			t.Fatalf("data section not aligned: %d %d", h.ExtensionTableSize, h.FileDataSize)
		}
	}
}

func TestStringsStoredOnce(t *testing.T) {
	b := encodeSample(t, sampleArchive())
	if n := bytes.Count(b, []byte("\x00chr_sonic\x00")); n != 1 {
		t.Fatalf("chr_sonic stored %d times", n)
	}
	if n := bytes.Count(b, []byte("model:ResModel\x00")); n != 1 {
		t.Fatalf("model:ResModel stored %d times", n)
	}
}

func TestOffsetTableListsEveryOffset(t *testing.T) {
	a := sampleArchive()
	b := encodeSample(t, a)
	h, err := ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	table, err := bina.DecodeOffsetTable(b[h.FileSize-h.OffsetTableSize:], origin)
	if err != nil {
		t.Fatal(err)
	}

	// types array, plus name, data and files array per type (the split
	// list is one more type), plus name and data per file, plus the proxy
	// table and split list.
	want := 1 + 3*(len(a.Types)+1) + 2*1 + 1 + 2*len(a.Proxies) + 1 + len(a.Splits)
	for _, ty := range a.Types {
		want += 2 * len(ty.Files)
	}
	if len(table) != want {
		t.Fatalf("offset table has %d entries, want %d", len(table), want)
	}
	for _, pos := range table {
		v := binary.LittleEndian.Uint32(b[pos:])
		if v < bodyStart || v >= h.FileSize-h.OffsetTableSize {
			t.Fatalf("offset at %#x points to %#x", pos, v)
		}
	}
}

func TestNoDataEntries(t *testing.T) {
	a := sampleArchive()
	b := encodeSample(t, a)
	got, err := Read(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	ty, ok := got.FindType("model:ResModel")
	if !ok {
		t.Fatal("model type missing")
	}
	f := ty.Files[1]
	if !f.NoData || len(f.Data) != 0 {
		t.Fatalf("no-data file decoded as %#v", f)
	}

	a.Types[1].Files[1].Data = []byte("x")
	if err := Write(io.Discard, a); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEmptyArchive(t *testing.T) {
	b := encodeSample(t, &Archive{})
	got, err := Read(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Types) != 0 || len(got.Proxies) != 0 || len(got.Splits) != 0 {
		t.Fatalf("unexpected content %#v", got)
	}
	if len(b) != bodyStart+16 {
		t.Fatalf("empty archive is %d bytes", len(b))
	}
}

func TestReadFromWriteTo(t *testing.T) {
	in := sampleArchive()
	var buf bytes.Buffer
	n, err := in.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("WriteTo returned %d for %d bytes", n, buf.Len())
	}
	var out Archive
	m, err := out.ReadFrom(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if m != n {
		t.Fatalf("ReadFrom returned %d", m)
	}
	if diff := cmp.Diff(in, &out, archiveCmp); diff != "" {
		t.Fatalf("archive mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteNilArchive(t *testing.T) {
	err := Write(io.Discard, nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestWriteWriterError(t *testing.T) {
	if err := Write(&failingWriter{n: 10}, sampleArchive()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSplitsTypeKeptInSortedPosition(t *testing.T) {
	b := encodeSample(t, sampleArchive())
	// dds, model, pac.d, skl.hkx
	second := binary.LittleEndian.Uint32(b[0x34:]) + 2*8
	name := binary.LittleEndian.Uint32(b[second:])
	end := bytes.IndexByte(b[name:], 0)
	if got := string(b[name : name+uint32(end)]); got != SplitsTypeName {
		t.Fatalf("third type is %q", got)
	}
}

func TestSplitsTypeReserved(t *testing.T) {
	a := sampleArchive()
	a.Types = append(a.Types, Type{Name: SplitsTypeName})
	if err := Write(io.Discard, a); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

package pacx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func corruptSample(t *testing.T, mutate func(b []byte, h Header) []byte) error {
	t.Helper()
	b := encodeSample(t, sampleArchive())
	h, err := ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	b = mutate(b, h)
	_, err = Read(bytes.NewReader(b))
	return err
}

func TestRead_HeaderErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(b []byte, h Header) []byte
		want   error
	}{
		{"magic", func(b []byte, _ Header) []byte { b[0] = 'X'; return b }, ErrInvalidMagic},
		{"version", func(b []byte, _ Header) []byte { copy(b[4:7], "210"); return b }, ErrUnsupportedVersion},
		{"endian flag", func(b []byte, _ Header) []byte { b[7] = 'X'; return b }, ErrInvalidHeader},
		{"node signature", func(b []byte, _ Header) []byte { copy(b[16:20], "NODE"); return b }, ErrInvalidHeader},
		{"node count", func(b []byte, _ Header) []byte { b[12] = 2; return b }, ErrInvalidHeader},
		{"truncated header", func(b []byte, _ Header) []byte { return b[:0x20] }, ErrInvalidHeader},
		{"trailing bytes", func(b []byte, _ Header) []byte { return append(b, 0) }, ErrCorruptArchive},
		{"truncated body", func(b []byte, _ Header) []byte { return b[:len(b)-4] }, ErrCorruptArchive},
		{"node size", func(b []byte, h Header) []byte {
			binary.LittleEndian.PutUint32(b[20:], h.NodeSize+4)
			return b
		}, ErrCorruptArchive},
		{"section sizes", func(b []byte, h Header) []byte {
			binary.LittleEndian.PutUint32(b[24:], h.FileDataSize+4)
			return b
		}, ErrCorruptArchive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := corruptSample(t, tc.mutate)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRead_BodyErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(b []byte, h Header) []byte
		want   error
	}{
		{"offset past end", func(b []byte, _ Header) []byte {
			binary.LittleEndian.PutUint32(b[0x34:], 0xFFFFFF00)
			return b
		}, ErrCorruptArchive},
		{"zero delta in offset table", func(b []byte, h Header) []byte {
			b[h.FileSize-h.OffsetTableSize] = 0x40
			return b
		}, ErrCorruptArchive},
		{"offset table points into header", func(b []byte, h Header) []byte {
			b[h.FileSize-h.OffsetTableSize] = 0x41
			return b
		}, ErrCorruptArchive},
		{"entry larger than file", func(b []byte, h Header) []byte {
			binary.LittleEndian.PutUint32(b[bodyStart+h.ExtensionTableSize:], 0x7FFFFFF0)
			return b
		}, ErrCorruptArchive},
		{"no-data entry with payload", func(b []byte, h Header) []byte {
			b[bodyStart+h.ExtensionTableSize+12] = byte(DataFlagsNoData)
			return b
		}, ErrCorruptArchive},
		{"null types array", func(b []byte, _ Header) []byte {
			binary.LittleEndian.PutUint32(b[0x34:], 0)
			return b
		}, ErrCorruptArchive},
		{"too many types", func(b []byte, _ Header) []byte {
			binary.LittleEndian.PutUint32(b[0x30:], 1<<20)
			return b
		}, ErrLimitExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := corruptSample(t, tc.mutate)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRead_BigEndianCorruptCount(t *testing.T) {
	a := sampleArchive()
	a.BigEndian = true
	b := encodeSample(t, a)
	// A count that only fits the buffer when read in the wrong byte order.
	binary.BigEndian.PutUint32(b[0x30:], 0x01000000)
	_, err := Read(bytes.NewReader(b))
	if !errors.Is(err, ErrCorruptArchive) {
		t.Fatalf("expected ErrCorruptArchive, got %v", err)
	}
}

func TestRead_Limits(t *testing.T) {
	b := encodeSample(t, sampleArchive())

	if _, err := Read(bytes.NewReader(b), WithReadLimits(Limits{MaxArchiveSize: 64})); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("archive size: got %v", err)
	}
	if _, err := Read(bytes.NewReader(b), WithReadLimits(Limits{MaxTypes: 1})); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("types: got %v", err)
	}
	if _, err := Read(bytes.NewReader(b), WithReadLimits(Limits{MaxFilesPerType: 1})); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("files: got %v", err)
	}
	if _, err := Read(bytes.NewReader(b), WithReadLimits(Limits{MaxEntrySize: 4})); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("entry size: got %v", err)
	}
	if _, err := Read(bytes.NewReader(b), WithReadLimits(Limits{MaxNameLen: 4})); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("name length: got %v", err)
	}
}

func TestParseHeaderDoesNotModifyInput(t *testing.T) {
	a := sampleArchive()
	a.BigEndian = true
	b := encodeSample(t, a)
	orig := bytes.Clone(b)
	h, err := ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if !h.BigEndian || int(h.FileSize) != len(b) {
		t.Fatalf("header %#v", h)
	}
	if !bytes.Equal(orig, b) {
		t.Fatal("input modified")
	}
}

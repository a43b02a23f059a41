package pacx

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is a transport wrapper around a whole archive file, as used
// when archives are shipped or cached outside the game (for example
// "w1a01.pac.zst"). The PACx format itself stores entries uncompressed.
type Compression uint16

const (
	CompNone Compression = 0x0
	CompGZIP Compression = 0x1
	CompZSTD Compression = 0x2
	CompLZ4  Compression = 0x3
	CompBR   Compression = 0x4

	// compAuto picks the compression from the path suffix.
	compAuto Compression = 0xFFFF
)

var compressionSuffixes = []struct {
	comp   Compression
	suffix string
}{
	{CompGZIP, ".gz"},
	{CompZSTD, ".zst"},
	{CompLZ4, ".lz4"},
	{CompBR, ".br"},
}

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompGZIP:
		return "gzip"
	case CompZSTD:
		return "zstd"
	case CompLZ4:
		return "lz4"
	case CompBR:
		return "br"
	default:
		return fmt.Sprintf("Compression(%d)", uint16(c))
	}
}

// CompressionFromPath returns the transport compression implied by the
// suffix of p, or CompNone.
func CompressionFromPath(p string) Compression {
	for _, s := range compressionSuffixes {
		if strings.HasSuffix(p, s.suffix) {
			return s.comp
		}
	}
	return CompNone
}

// TrimCompressionSuffix removes a transport compression suffix from p.
func TrimCompressionSuffix(p string) string {
	for _, s := range compressionSuffixes {
		if strings.HasSuffix(p, s.suffix) {
			return strings.TrimSuffix(p, s.suffix)
		}
	}
	return p
}

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) }
	newZstdReader = func() (*zstd.Decoder, error) { return zstd.NewReader(nil) }
	lz4Close      = func(w *lz4.Writer) error { return w.Close() }
	brotliClose   = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite   = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
	gzipClose     = func(w *gzip.Writer) error { return w.Close() }
)

// compress wraps in with comp.
func compress(comp Compression, in []byte) ([]byte, error) {
	switch comp {
	case CompNone:
		return in, nil
	case CompGZIP:
		return gzipCompress(in)
	case CompZSTD:
		return zstdCompress(in)
	case CompLZ4:
		return lz4Compress(in)
	case CompBR:
		return brotliCompress(in)
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrValidation, comp)
	}
}

// decompress unwraps in. It enforces limit to prevent decompression bombs.
func decompress(comp Compression, in []byte, limit uint64) ([]byte, error) {
	var out []byte
	var err error
	switch comp {
	case CompNone:
		out = in
	case CompGZIP:
		out, err = gzipDecompress(in, limit)
	case CompZSTD:
		out, err = zstdDecompress(in, limit)
	case CompLZ4:
		out, err = lz4Decompress(in, limit)
	case CompBR:
		out, err = brotliDecompress(in, limit)
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrValidation, comp)
	}
	if err != nil {
		return nil, err
	}
	if uint64(len(out)) > limit {
		return nil, fmt.Errorf("%w: %s stream expanded beyond %d bytes", ErrLimitExceeded, comp, limit)
	}
	return out, nil
}

// zstdCompress compresses in using the Zstandard algorithm.
func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

// zstdDecompress decompresses Zstandard-compressed data, reading at most
// limit+1 bytes of output.
func zstdDecompress(in []byte, limit uint64) ([]byte, error) {
	dec, err := newZstdReader()
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	if err := dec.Reset(bytes.NewReader(in)); err != nil {
		return nil, err
	}
	return readAll(io.LimitReader(dec, int64(limit)+1))
}

// lz4Compress compresses in using the LZ4 frame format.
func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return nil, err
	}
	if err := lz4Close(zw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lz4Decompress(in []byte, limit uint64) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	return readAll(io.LimitReader(r, int64(limit)+1))
}

// brotliCompress compresses in using the Brotli algorithm.
func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return nil, err
	}
	if err := brotliClose(bw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func brotliDecompress(in []byte, limit uint64) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	return readAll(io.LimitReader(r, int64(limit)+1))
}

// gzipCompress compresses in as a single gzip member.
func gzipCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(in); err != nil {
		_ = gzipClose(gw)
		return nil, err
	}
	if err := gzipClose(gw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gzipDecompress(in []byte, limit uint64) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return readAll(io.LimitReader(r, int64(limit)+1))
}

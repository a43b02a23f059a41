package pacx

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-kit/log/level"
	"github.com/spf13/afero"
)

// ReadFile reads the archive stored at name. Paths ending in a transport
// compression suffix (".gz", ".zst", ".lz4", ".br") are decompressed first.
func ReadFile(fs afero.Fs, name string, opts ...ReadOption) (*Archive, error) {
	cfg := newReadConfig(opts)
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	b, err := readAll(io.LimitReader(f, int64(cfg.limits.MaxArchiveSize)+1))
	if err != nil {
		return nil, err
	}
	comp := CompressionFromPath(name)
	if comp != CompNone {
		level.Debug(cfg.logger).Log("msg", "decompressing archive", "path", name, "compression", comp)
		if b, err = decompress(comp, b, cfg.limits.MaxArchiveSize); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if uint64(len(b)) > cfg.limits.MaxArchiveSize {
		return nil, fmt.Errorf("%s: %w: archive larger than %d bytes", name, ErrLimitExceeded, cfg.limits.MaxArchiveSize)
	}
	a, err := decodeArchive(b, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return a, nil
}

// WriteFile encodes a and stores it at name, compressed according to the
// path suffix unless WithCompression says otherwise.
func WriteFile(fs afero.Fs, name string, a *Archive, opts ...WriteOption) error {
	cfg := newWriteConfig(opts)
	b, err := encodeArchive(a, cfg)
	if err != nil {
		return err
	}
	comp := cfg.compression
	if comp == compAuto {
		comp = CompressionFromPath(name)
	}
	if b, err = compress(comp, b); err != nil {
		return err
	}
	return afero.WriteFile(fs, name, b, 0o644)
}

// GetSplitList returns the paths of the split archives the archive at name
// declares. Only the archive itself is read.
func GetSplitList(fs afero.Fs, name string, opts ...ReadOption) ([]string, error) {
	a, err := ReadFile(fs, name, opts...)
	if err != nil {
		return nil, err
	}
	return a.GetSplitList(name), nil
}

// GetSplitList returns the split archive names joined with the directory
// of name, which is the path a was read from. The result is never nil.
func (a *Archive) GetSplitList(name string) []string {
	dir := filepath.Dir(name)
	out := make([]string, 0, len(a.Splits))
	for _, s := range a.Splits {
		out = append(out, filepath.Join(dir, s))
	}
	return out
}

// ExtractFile reads the archive at name and extracts it into dir. If the
// archive has no-data entries and no splits were passed with WithSplits,
// the split archives it declares are read from fs and used to resolve them.
func ExtractFile(fs afero.Fs, name, dir string, opts ...ExtractOption) error {
	cfg := newExtractConfig(opts)
	a, err := ReadFile(fs, name, WithLogger(cfg.logger))
	if err != nil {
		return err
	}
	if len(cfg.splits) == 0 && a.hasNoData() {
		for _, p := range a.GetSplitList(name) {
			s, err := ReadFile(fs, p, WithLogger(cfg.logger))
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}
			opts = append(opts, WithSplits(s))
		}
	}
	return a.Extract(fs, dir, opts...)
}

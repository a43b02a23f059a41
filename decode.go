package pacx

import (
	"fmt"
	"io"

	"github.com/go-kit/log/level"

	"github.com/logicossoftware/go-pacx/bina"
)

// Function variables for testing injection.
var readAll = io.ReadAll

// Read decodes a PACx archive from r.
//
// The whole input is loaded into memory, then:
//  1. The header is validated and the section sizes are checked against
//     the file size
//  2. The offset table is decoded and every listed offset is relocated
//     once, from file-relative to a position in the loaded buffer
//  3. Big-endian archives are converted to little-endian in place
//  4. The type tree, proxy table and split list are decoded
//
// File payloads alias the loaded buffer.
//
// Read returns ErrInvalidMagic, ErrUnsupportedVersion or ErrInvalidHeader
// if the header is not a PACx 201 header, ErrCorruptArchive if a size,
// offset or count points outside the file, and ErrLimitExceeded if the
// archive exceeds the configured limits.
func Read(r io.Reader, opts ...ReadOption) (*Archive, error) {
	cfg := newReadConfig(opts)
	b, err := readAll(io.LimitReader(r, int64(cfg.limits.MaxArchiveSize)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > cfg.limits.MaxArchiveSize {
		return nil, fmt.Errorf("%w: archive larger than %d bytes", ErrLimitExceeded, cfg.limits.MaxArchiveSize)
	}
	return decodeArchive(b, cfg)
}

// ReadFrom implements io.ReaderFrom. It replaces the contents of a.
func (a *Archive) ReadFrom(r io.Reader) (int64, error) {
	cfg := newReadConfig(nil)
	b, err := readAll(io.LimitReader(r, int64(cfg.limits.MaxArchiveSize)+1))
	if err != nil {
		return int64(len(b)), err
	}
	if uint64(len(b)) > cfg.limits.MaxArchiveSize {
		return int64(len(b)), fmt.Errorf("%w: archive larger than %d bytes", ErrLimitExceeded, cfg.limits.MaxArchiveSize)
	}
	out, err := decodeArchive(b, cfg)
	if err != nil {
		return int64(len(b)), err
	}
	*a = *out
	return int64(len(b)), nil
}

func decodeArchive(b []byte, cfg readConfig) (*Archive, error) {
	arena := bina.NewArena(b)
	h, err := readHeader(arena)
	if err != nil {
		return nil, err
	}
	if int64(h.FileSize) != int64(len(b)) {
		return nil, fmt.Errorf("%w: header declares %d bytes, read %d", ErrCorruptArchive, h.FileSize, len(b))
	}
	s, err := h.sections()
	if err != nil {
		return nil, err
	}

	table, err := bina.DecodeOffsetTable(b[s.offset:s.end], origin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	for _, pos := range table {
		if pos < bodyStart || pos+4 > s.str {
			return nil, fmt.Errorf("%w: offset field at %#x outside the body", ErrCorruptArchive, pos)
		}
	}
	if err := table.Fix(arena, origin, bina.Width32, h.BigEndian); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}

	d := decoder{arena: arena, limits: cfg.limits, bigEndian: h.BigEndian}
	if h.BigEndian {
		if err := bina.SwapRecursive(arena, typesTreeLayout, bodyStart, bina.ToNative); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
		}
		if h.ProxyTableSize > 0 {
			if err := bina.SwapRecursive(arena, proxyTableLayout, s.proxy, bina.ToNative); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCorruptArchive, err)
			}
		}
	}

	out := &Archive{BigEndian: h.BigEndian}
	if err := d.types(out); err != nil {
		return nil, err
	}
	if h.ProxyTableSize > 0 {
		if out.Proxies, err = d.proxies(s.proxy); err != nil {
			return nil, err
		}
	}

	level.Debug(cfg.logger).Log(
		"msg", "read archive",
		"size", h.FileSize,
		"types", len(out.Types),
		"proxies", len(out.Proxies),
		"splits", len(out.Splits),
		"offsets", len(table),
		"big_endian", h.BigEndian,
	)
	return out, nil
}

type decoder struct {
	arena     *bina.Arena
	limits    Limits
	bigEndian bool
}

func corrupt(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCorruptArchive, what, err)
}

func (d *decoder) types(out *Archive) error {
	nodes := d.arena.Cursor(bodyStart).Array(bina.Width32, 4)
	n, err := nodes.Count()
	if err != nil {
		return corrupt("types tree", err)
	}
	if n > uint64(d.limits.MaxTypes) {
		return fmt.Errorf("%w: %d types", ErrLimitExceeded, n)
	}
	for i := uint64(0); i < n; i++ {
		c, err := nodes.Elem(i, typeNodeLayout.Size())
		if err != nil {
			return corrupt("type node", err)
		}
		name := c.String(bina.Width32)
		data := c.Offset(bina.Width32)
		if err := c.Err(); err != nil {
			return corrupt("type node", err)
		}
		if err := d.checkName(name); err != nil {
			return err
		}
		fc, err := data.Deref()
		if err != nil {
			return corrupt(fmt.Sprintf("type %q", name), err)
		}
		if name == SplitsTypeName {
			if err := d.splits(fc, out); err != nil {
				return err
			}
			continue
		}
		files, err := d.files(fc)
		if err != nil {
			return fmt.Errorf("type %q: %w", name, err)
		}
		out.Types = append(out.Types, Type{Name: name, Files: files})
	}
	return nil
}

func (d *decoder) files(c *bina.Cursor) ([]File, error) {
	nodes := c.Array(bina.Width32, 4)
	if err := c.Err(); err != nil {
		return nil, corrupt("files tree", err)
	}
	n, err := nodes.Count()
	if err != nil {
		return nil, corrupt("files tree", err)
	}
	if n > uint64(d.limits.MaxFilesPerType) {
		return nil, fmt.Errorf("%w: %d files", ErrLimitExceeded, n)
	}
	files := make([]File, 0, n)
	for i := uint64(0); i < n; i++ {
		fc, err := nodes.Elem(i, fileNodeLayout.Size())
		if err != nil {
			return nil, corrupt("file node", err)
		}
		name := fc.String(bina.Width32)
		data := fc.Offset(bina.Width32)
		if err := fc.Err(); err != nil {
			return nil, corrupt("file node", err)
		}
		if err := d.checkName(name); err != nil {
			return nil, err
		}
		ec, err := data.Deref()
		if err != nil {
			return nil, corrupt(fmt.Sprintf("file %q", name), err)
		}
		f, err := d.entry(ec)
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", name, err)
		}
		f.Name = name
		files = append(files, f)
	}
	return files, nil
}

func (d *decoder) entry(c *bina.Cursor) (File, error) {
	var f File
	size := c.U32()
	f.Unknown1 = c.U32()
	f.Unknown2 = c.U32()
	flags := DataFlags(c.U8())
	c.Skip(3)
	if err := c.Err(); err != nil {
		return File{}, corrupt("data entry", err)
	}
	if uint64(size) > d.limits.MaxEntrySize {
		return File{}, fmt.Errorf("%w: entry of %d bytes", ErrLimitExceeded, size)
	}
	if flags&DataFlagsNoData != 0 {
		if size != 0 {
			return File{}, fmt.Errorf("%w: no-data entry with %d bytes", ErrCorruptArchive, size)
		}
		f.NoData = true
		return f, nil
	}
	f.Data = c.Bytes(int(size))
	if err := c.Err(); err != nil {
		return File{}, corrupt("data entry payload", err)
	}
	return f, nil
}

// splits decodes the split list. It is stored as the payload of the only
// file of the depend type.
func (d *decoder) splits(c *bina.Cursor, out *Archive) error {
	nodes := c.Array(bina.Width32, 4)
	n, err := nodes.Count()
	if err != nil {
		return corrupt("split list", err)
	}
	if n != 1 {
		return fmt.Errorf("%w: %d split list entries", ErrCorruptArchive, n)
	}
	fc, err := nodes.Elem(0, fileNodeLayout.Size())
	if err != nil {
		return corrupt("split list", err)
	}
	name := fc.String(bina.Width32)
	data := fc.Offset(bina.Width32)
	if err := fc.Err(); err != nil {
		return corrupt("split list", err)
	}
	ec, err := data.Deref()
	if err != nil {
		return corrupt("split list", err)
	}
	f, err := d.entry(ec)
	if err != nil {
		return err
	}
	if f.NoData || len(f.Data) < splitsTableLayout.Size() {
		return fmt.Errorf("%w: split list of %d bytes", ErrCorruptArchive, len(f.Data))
	}

	entry, err := data.Get()
	if err != nil {
		return corrupt("split list", err)
	}
	pos := entry + dataEntrySize
	if d.bigEndian {
		if err := bina.SwapRecursive(d.arena, splitsTableLayout, pos, bina.ToNative); err != nil {
			return corrupt("split list", err)
		}
	}
	tc := d.arena.Cursor(pos)
	ref := tc.Offset(bina.Width32)
	count := tc.U32()
	if err := tc.Err(); err != nil {
		return corrupt("split list", err)
	}
	if count > uint32(d.limits.MaxSplits) {
		return fmt.Errorf("%w: %d splits", ErrLimitExceeded, count)
	}
	out.SplitsName = name
	out.Splits = make([]string, 0, count)
	if count == 0 {
		return nil
	}
	base, err := ref.Get()
	if err != nil || base == 0 {
		return fmt.Errorf("%w: split list has %d entries and no table", ErrCorruptArchive, count)
	}
	for i := int64(0); i < int64(count); i++ {
		sc := d.arena.Cursor(base + i*int64(splitEntryLayout.Size()))
		s := sc.String(bina.Width32)
		if err := sc.Err(); err != nil {
			return corrupt("split entry", err)
		}
		out.Splits = append(out.Splits, s)
	}
	return nil
}

func (d *decoder) proxies(pos int64) ([]Proxy, error) {
	entries := d.arena.Cursor(pos).Array(bina.Width32, 4)
	n, err := entries.Count()
	if err != nil {
		return nil, corrupt("proxy table", err)
	}
	if n > uint64(d.limits.MaxProxies) {
		return nil, fmt.Errorf("%w: %d proxies", ErrLimitExceeded, n)
	}
	out := make([]Proxy, 0, n)
	for i := uint64(0); i < n; i++ {
		c, err := entries.Elem(i, proxyEntryLayout.Size())
		if err != nil {
			return nil, corrupt("proxy entry", err)
		}
		p := Proxy{
			Extension: c.String(bina.Width32),
			Name:      c.String(bina.Width32),
			Index:     c.U32(),
		}
		if err := c.Err(); err != nil {
			return nil, corrupt("proxy entry", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: unnamed node", ErrCorruptArchive)
	}
	if len(name) > d.limits.MaxNameLen {
		return fmt.Errorf("%w: name of %d bytes", ErrLimitExceeded, len(name))
	}
	return nil
}

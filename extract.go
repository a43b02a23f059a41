package pacx

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"
)

// Extract writes every file of a to dir as dir/<name>.<extension>.
//
// No-data files are resolved through the proxy table against the archives
// given with WithSplits. Without splits they are skipped; with splits, a
// file no split can back fails with ErrUnresolvedProxy.
func (a *Archive) Extract(fs afero.Fs, dir string, opts ...ExtractOption) error {
	cfg := newExtractConfig(opts)
	for _, p := range cfg.includes {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: bad include pattern %q", ErrValidation, p)
		}
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	proxies := a.proxyIndex()
	var written, skipped int
	for _, t := range a.Types {
		for _, f := range t.Files {
			rel := t.FileName(f)
			if err := validateContainerPath(rel); err != nil {
				return fmt.Errorf("%w: file %q: %v", ErrValidation, rel, err)
			}
			if !cfg.included(rel) {
				continue
			}
			data := f.Data
			if f.NoData {
				if len(cfg.splits) == 0 {
					level.Debug(cfg.logger).Log("msg", "skipping no-data file", "file", rel)
					skipped++
					continue
				}
				p, ok := proxies[proxyKey{t.Name, f.Name}]
				if !ok {
					return fmt.Errorf("%w: %s has no proxy entry", ErrUnresolvedProxy, rel)
				}
				var err error
				if data, err = resolveProxy(p, cfg.splits); err != nil {
					return err
				}
			}
			target := filepath.Join(dir, filepath.FromSlash(rel))
			if err := fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := afero.WriteFile(fs, target, data, 0o644); err != nil {
				return err
			}
			written++
		}
	}
	level.Debug(cfg.logger).Log("msg", "extracted archive", "dir", dir, "written", written, "skipped", skipped)
	return nil
}

func (c extractConfig) included(name string) bool {
	if len(c.includes) == 0 {
		return true
	}
	for _, p := range c.includes {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

type proxyKey struct {
	typ  string
	name string
}

func (a *Archive) proxyIndex() map[proxyKey]Proxy {
	m := make(map[proxyKey]Proxy, len(a.Proxies))
	for _, p := range a.Proxies {
		m[proxyKey{p.Extension, p.Name}] = p
	}
	return m
}

// resolveProxy returns the payload backing p: the file at p.Index in the
// split type named p.Extension, which must carry the same name and data.
func resolveProxy(p Proxy, splits []*Archive) ([]byte, error) {
	for _, s := range splits {
		t, ok := s.FindType(p.Extension)
		if !ok || int(p.Index) >= len(t.Files) {
			continue
		}
		f := t.Files[p.Index]
		if f.Name == p.Name && !f.NoData {
			return f.Data, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q index %d is in no split", ErrUnresolvedProxy, p.Extension, p.Name, p.Index)
}

// FindType returns the type called name.
func (a *Archive) FindType(name string) (Type, bool) {
	for _, t := range a.Types {
		if t.Name == name {
			return t, true
		}
	}
	return Type{}, false
}

func (a *Archive) hasNoData() bool {
	for _, t := range a.Types {
		for _, f := range t.Files {
			if f.NoData {
				return true
			}
		}
	}
	return false
}

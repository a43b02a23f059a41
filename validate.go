package pacx

import (
	"fmt"
	"path"
	"strings"
)

func validateArchive(a *Archive, limits Limits) error {
	if a == nil {
		return fmt.Errorf("%w: archive is nil", ErrValidation)
	}
	if len(a.Types) > limits.MaxTypes {
		return fmt.Errorf("%w: too many types", ErrLimitExceeded)
	}
	seenTypes := make(map[string]struct{}, len(a.Types))
	for i := range a.Types {
		t := a.Types[i]
		if err := validateName(t.Name, limits); err != nil {
			return fmt.Errorf("type %d name: %w", i, err)
		}
		if t.Name == SplitsTypeName {
			return fmt.Errorf("%w: type %q is reserved for Archive.Splits", ErrValidation, t.Name)
		}
		if _, ok := seenTypes[t.Name]; ok {
			return fmt.Errorf("%w: duplicate type %q", ErrValidation, t.Name)
		}
		seenTypes[t.Name] = struct{}{}
		if len(t.Files) > limits.MaxFilesPerType {
			return fmt.Errorf("%w: too many files in type %q", ErrLimitExceeded, t.Name)
		}
		for j := range t.Files {
			f := t.Files[j]
			if err := validateName(f.Name, limits); err != nil {
				return fmt.Errorf("type %q file %d name: %w", t.Name, j, err)
			}
			if f.NoData && len(f.Data) > 0 {
				return fmt.Errorf("%w: no-data file %q has %d bytes", ErrValidation, f.Name, len(f.Data))
			}
			if uint64(len(f.Data)) > limits.MaxEntrySize {
				return fmt.Errorf("%w: file %q too large", ErrLimitExceeded, f.Name)
			}
		}
	}
	if len(a.Proxies) > limits.MaxProxies {
		return fmt.Errorf("%w: too many proxies", ErrLimitExceeded)
	}
	for i, p := range a.Proxies {
		if err := validateName(p.Extension, limits); err != nil {
			return fmt.Errorf("proxy %d extension: %w", i, err)
		}
		if err := validateName(p.Name, limits); err != nil {
			return fmt.Errorf("proxy %d name: %w", i, err)
		}
	}
	if len(a.Splits) > limits.MaxSplits {
		return fmt.Errorf("%w: too many splits", ErrLimitExceeded)
	}
	for i, s := range a.Splits {
		if err := validateName(s, limits); err != nil {
			return fmt.Errorf("split %d: %w", i, err)
		}
	}
	if a.SplitsName != "" {
		if err := validateName(a.SplitsName, limits); err != nil {
			return fmt.Errorf("split list name: %w", err)
		}
	}
	return nil
}

// validateName checks a string stored in the string table.
func validateName(s string, limits Limits) error {
	if s == "" {
		return fmt.Errorf("%w: name is empty", ErrValidation)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: name %q contains NUL", ErrValidation, s)
	}
	if len(s) > limits.MaxNameLen {
		return fmt.Errorf("%w: name of %d bytes", ErrLimitExceeded, len(s))
	}
	return nil
}

// validateContainerPath checks a path an entry is extracted to, relative to
// the output directory.
func validateContainerPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("path must not be absolute")
	}
	if strings.Contains(p, "\\") {
		return fmt.Errorf("path must use forward slashes")
	}
	clean := path.Clean(p)
	if clean != p {
		return fmt.Errorf("path must be normalized: %q", clean)
	}
	if clean == "." {
		return fmt.Errorf("path must not be current directory")
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("path must not escape")
	}
	return nil
}

package pacx

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultResourceType is used for extensions a TypeMap does not know.
const DefaultResourceType = "ResRawData"

// TypeMap maps file extensions, without the leading dot, to resource types.
type TypeMap map[string]string

// DefaultTypeMap returns the resource types of common Lost World assets.
func DefaultTypeMap() TypeMap {
	return TypeMap{
		"anm.hkx":       "ResAnimSkeleton",
		"dds":           "ResTexture",
		"light":         "ResMirageLight",
		"lua":           "ResLuaData",
		"material":      "ResMirageMaterial",
		"model":         "ResModel",
		"phy.hkx":       "ResHavokMesh",
		"skl.hkx":       "ResSkeleton",
		"terrain-model": "ResMirageTerrainModel",
		"uv-anim":       "ResAnimTexSrt",
		"xtb2":          "ResXTB2Data",
	}
}

type typeMapFile struct {
	Extensions map[string]string `yaml:"extensions"`
}

// LoadTypeMap reads a YAML type map of the form
//
//	extensions:
//	  dds: ResTexture
//	  model: ResModel
func LoadTypeMap(r io.Reader) (TypeMap, error) {
	var f typeMapFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: type map: %v", ErrValidation, err)
	}
	m := make(TypeMap, len(f.Extensions))
	for ext, rt := range f.Extensions {
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" || rt == "" || strings.ContainsAny(ext+rt, ":\x00") {
			return nil, fmt.Errorf("%w: type map entry %q: %q", ErrValidation, ext, rt)
		}
		m[ext] = rt
	}
	return m, nil
}

// Marshal encodes m in the format LoadTypeMap reads.
func (m TypeMap) Marshal() ([]byte, error) {
	return yaml.Marshal(typeMapFile{Extensions: m})
}

// TypeName returns the PACx type name for ext, e.g. "dds:ResTexture".
func (m TypeMap) TypeName(ext string) string {
	rt, ok := m[ext]
	if !ok {
		rt = DefaultResourceType
	}
	return ext + ":" + rt
}

// SplitName splits a file name at its first dot into the entry name and
// the extension, so "chr_sonic.skl.hkx" yields "chr_sonic" and "skl.hkx".
func SplitName(file string) (name, ext string) {
	name, ext, _ = strings.Cut(file, ".")
	return name, ext
}

// FromDir builds an archive from the regular files directly inside dir.
// Each file becomes an entry of the type m assigns to its extension. The
// result is sorted.
func FromDir(fs afero.Fs, dir string, m TypeMap) (*Archive, error) {
	if m == nil {
		m = DefaultTypeMap()
	}
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	byType := make(map[string][]File)
	for _, fi := range infos {
		if !fi.Mode().IsRegular() {
			continue
		}
		name, ext := SplitName(fi.Name())
		if name == "" || ext == "" {
			return nil, fmt.Errorf("%w: %q has no name or extension", ErrValidation, fi.Name())
		}
		data, err := afero.ReadFile(fs, filepath.Join(dir, fi.Name()))
		if err != nil {
			return nil, err
		}
		tn := m.TypeName(ext)
		byType[tn] = append(byType[tn], File{Name: name, Data: data})
	}
	a := &Archive{}
	for _, tn := range slices.Sorted(maps.Keys(byType)) {
		a.Types = append(a.Types, Type{Name: tn, Files: byType[tn]})
	}
	a.Sort()
	return a, nil
}

// Sort orders types and the files within each type by name, the order the
// game looks entries up in.
func (a *Archive) Sort() {
	slices.SortFunc(a.Types, func(x, y Type) int { return strings.Compare(x.Name, y.Name) })
	for i := range a.Types {
		slices.SortStableFunc(a.Types[i].Files, func(x, y File) int { return strings.Compare(x.Name, y.Name) })
	}
}

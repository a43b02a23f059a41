package pacx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestLoadTypeMap(t *testing.T) {
	m, err := LoadTypeMap(strings.NewReader("extensions:\n  dds: ResTexture\n  .model: ResModel\n"))
	require.NoError(t, err)
	require.Equal(t, TypeMap{"dds": "ResTexture", "model": "ResModel"}, m)

	b, err := m.Marshal()
	require.NoError(t, err)
	back, err := LoadTypeMap(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, m, back)

	empty, err := LoadTypeMap(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestLoadTypeMapErrors(t *testing.T) {
	for _, in := range []string{
		"extensions: [dds]\n",
		"extension:\n  dds: ResTexture\n",
		"extensions:\n  dds: \"\"\n",
		"extensions:\n  dds: \"Res:Texture\"\n",
	} {
		_, err := LoadTypeMap(strings.NewReader(in))
		require.ErrorIs(t, err, ErrValidation, in)
	}
}

func TestTypeName(t *testing.T) {
	m := DefaultTypeMap()
	require.Equal(t, "dds:ResTexture", m.TypeName("dds"))
	require.Equal(t, "txt:"+DefaultResourceType, m.TypeName("txt"))

	name, ext := SplitName("chr_sonic.skl.hkx")
	require.Equal(t, "chr_sonic", name)
	require.Equal(t, "skl.hkx", ext)
}

func TestFromDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"in/b.dds":             "bb",
		"in/a.dds":             "aa",
		"in/chr_sonic.skl.hkx": "skl",
		"in/notes.txt":         "hi",
		"in/sub/ignored.dds":   "x",
	}
	for p, s := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(s), 0o644))
	}

	a, err := FromDir(fs, "in", nil)
	require.NoError(t, err)
	require.Equal(t, &Archive{Types: []Type{
		{Name: "dds:ResTexture", Files: []File{{Name: "a", Data: []byte("aa")}, {Name: "b", Data: []byte("bb")}}},
		{Name: "skl.hkx:ResSkeleton", Files: []File{{Name: "chr_sonic", Data: []byte("skl")}}},
		{Name: "txt:ResRawData", Files: []File{{Name: "notes", Data: []byte("hi")}}},
	}}, a)

	require.NoError(t, afero.WriteFile(fs, "in/noext", []byte("x"), 0o644))
	_, err = FromDir(fs, "in", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestSort(t *testing.T) {
	a := &Archive{Types: []Type{
		{Name: "model:ResModel", Files: []File{{Name: "z"}, {Name: "a"}}},
		{Name: "dds:ResTexture"},
	}}
	a.Sort()
	require.Equal(t, "dds:ResTexture", a.Types[0].Name)
	require.Equal(t, "a", a.Types[1].Files[0].Name)
}

package pacx

import "testing"

func TestLimitsWithDefaults(t *testing.T) {
	l := (Limits{}).withDefaults()
	if l.MaxArchiveSize == 0 || l.MaxTypes == 0 || l.MaxEntrySize == 0 || l.MaxNameLen == 0 {
		t.Fatal("expected defaults")
	}

	custom := Limits{MaxTypes: 7}
	custom = custom.withDefaults()
	if custom.MaxTypes != 7 {
		t.Fatalf("expected custom MaxTypes, got %d", custom.MaxTypes)
	}

	// The file size field is 32 bits wide.
	big := Limits{MaxArchiveSize: 1 << 40}.withDefaults()
	if big.MaxArchiveSize != 1<<32-1 {
		t.Fatalf("MaxArchiveSize not capped: %d", big.MaxArchiveSize)
	}
}

func TestValidateContainerPath(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"chr_sonic.dds", true},
		{"sub/chr_sonic.model", true},
		{"", false},
		{"/abs", false},
		{"a\\b", false},
		{"a//b", false},
		{"a/./b", false},
		{"a/../b", false},
		{".", false},
		{"..", false},
		{"../x", false},
		{"a/", false},
	}
	for _, tc := range cases {
		err := validateContainerPath(tc.in)
		if tc.want && err != nil {
			t.Fatalf("%q: expected ok, got %v", tc.in, err)
		}
		if !tc.want && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestTypeNameParts(t *testing.T) {
	ty := Type{Name: "skl.hkx:ResSkeleton"}
	if ty.Extension() != "skl.hkx" || ty.ResourceType() != "ResSkeleton" {
		t.Fatalf("got %q %q", ty.Extension(), ty.ResourceType())
	}
	if got := ty.FileName(File{Name: "chr_sonic"}); got != "chr_sonic.skl.hkx" {
		t.Fatalf("file name %q", got)
	}

	raw := Type{Name: "RawData"}
	if raw.Extension() != "RawData" || raw.ResourceType() != "" {
		t.Fatalf("got %q %q", raw.Extension(), raw.ResourceType())
	}
	if got := raw.FileName(File{Name: "a.txt"}); got != "a.txt" {
		t.Fatalf("file name %q", got)
	}
}

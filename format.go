package pacx

import (
	"io"

	"github.com/spf13/afero"
)

// Format is the contract archive formats implement toward the tools that
// load, repack and unpack them.
type Format interface {
	io.ReaderFrom
	io.WriterTo
	GetSplitList(name string) []string
	Extract(fs afero.Fs, dir string, opts ...ExtractOption) error
}

var _ Format = (*Archive)(nil)

package main

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/logicossoftware/go-pacx"
)

// infoCommand prints the header of each archive.
type infoCommand struct {
	files *[]string
}

func (cmd *infoCommand) run(*kingpin.ParseContext) error {
	for _, f := range *cmd.files {
		b, err := afero.ReadFile(fs, f)
		if err != nil {
			return err
		}
		h, err := pacx.ParseHeader(b)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		a, err := pacx.Read(bytes.NewReader(b), pacx.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		printInfo(f, h, a)
	}
	return nil
}

func printInfo(name string, h pacx.Header, a *pacx.Archive) {
	endian := "little"
	if h.BigEndian {
		endian = "big"
	}
	files := 0
	for _, t := range a.Types {
		files += len(t.Files)
	}
	fmt.Printf("%s: PACx 201, %s-endian, %s\n", name, endian, humanize.IBytes(uint64(h.FileSize)))
	fmt.Printf("  types: %d, files: %d, proxies: %d, splits: %d\n", len(a.Types), files, len(a.Proxies), len(a.Splits))
	for _, s := range []struct {
		name string
		size uint32
	}{
		{"extension table", h.ExtensionTableSize},
		{"file data", h.FileDataSize},
		{"proxy table", h.ProxyTableSize},
		{"string table", h.StringTableSize},
		{"offset table", h.OffsetTableSize},
	} {
		fmt.Printf("  %-16s %10s\n", s.name, humanize.IBytes(uint64(s.size)))
	}
}

func addInfoCommand(app *kingpin.Application) {
	cmd := &infoCommand{}
	info := app.Command("info", "Print archive headers.").Action(cmd.run)
	cmd.files = info.Arg("file", "Uncompressed archives to inspect.").Required().Strings()
}

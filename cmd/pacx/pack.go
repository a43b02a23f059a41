package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/go-kit/log/level"
	"github.com/google/renameio/v2"

	"github.com/logicossoftware/go-pacx"
)

// packCommand builds an archive from the files in a directory.
type packCommand struct {
	dir       *string
	out       *string
	typeMap   *string
	bigEndian *bool
	splits    *[]string
}

func (cmd *packCommand) run(*kingpin.ParseContext) error {
	m := pacx.DefaultTypeMap()
	if *cmd.typeMap != "" {
		f, err := fs.Open(*cmd.typeMap)
		if err != nil {
			return err
		}
		custom, err := pacx.LoadTypeMap(f)
		f.Close()
		if err != nil {
			return err
		}
		for ext, rt := range custom {
			m[ext] = rt
		}
	}

	a, err := pacx.FromDir(fs, *cmd.dir, m)
	if err != nil {
		return err
	}
	a.BigEndian = *cmd.bigEndian
	a.Splits = *cmd.splits

	pf, err := renameio.NewPendingFile(*cmd.out, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer pf.Cleanup()
	opts := []pacx.WriteOption{pacx.WithWriteLogger(logger)}
	if comp := pacx.CompressionFromPath(*cmd.out); comp != pacx.CompNone {
		opts = append(opts, pacx.WithCompression(comp))
	}
	if err := pacx.Write(pf, a, opts...); err != nil {
		return fmt.Errorf("%s: %w", *cmd.out, err)
	}
	fi, err := pf.Stat()
	if err != nil {
		return err
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return err
	}
	level.Info(logger).Log("msg", "packed archive", "file", *cmd.out, "types", len(a.Types), "size", humanize.IBytes(uint64(fi.Size())))
	return nil
}

func addPackCommand(app *kingpin.Application) {
	cmd := &packCommand{}
	pack := app.Command("pack", "Build an archive from a directory.").Action(cmd.run)
	cmd.dir = pack.Arg("dir", "Directory holding the files to pack.").Required().String()
	cmd.out = pack.Arg("out", "Archive to write.").Required().String()
	cmd.typeMap = pack.Flag("type-map", "YAML file mapping extensions to resource types.").String()
	cmd.bigEndian = pack.Flag("big-endian", "Write a big-endian archive.").Bool()
	cmd.splits = pack.Flag("split", "Declare a split archive. Repeatable.").Strings()
}

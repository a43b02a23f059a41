package main

import (
	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log/level"

	"github.com/logicossoftware/go-pacx"
)

// extractCommand unpacks an archive, resolving split entries from the
// splits next to it.
type extractCommand struct {
	file     *string
	out      *string
	includes *[]string
	noSplits *bool
}

func (cmd *extractCommand) run(*kingpin.ParseContext) error {
	opts := []pacx.ExtractOption{
		pacx.WithExtractLogger(logger),
		pacx.WithIncludes(*cmd.includes...),
	}
	var err error
	if *cmd.noSplits {
		var a *pacx.Archive
		if a, err = pacx.ReadFile(fs, *cmd.file, pacx.WithLogger(logger)); err == nil {
			err = a.Extract(fs, *cmd.out, opts...)
		}
	} else {
		err = pacx.ExtractFile(fs, *cmd.file, *cmd.out, opts...)
	}
	if err != nil {
		return err
	}
	level.Info(logger).Log("msg", "extracted archive", "file", *cmd.file, "dir", *cmd.out)
	return nil
}

func addExtractCommand(app *kingpin.Application) {
	cmd := &extractCommand{}
	extract := app.Command("extract", "Extract an archive into a directory.").Alias("x").Action(cmd.run)
	cmd.file = extract.Arg("file", "The archive.").Required().String()
	cmd.out = extract.Flag("out", "Output directory.").Short('o').Default(".").String()
	cmd.includes = extract.Flag("include", "Only extract files matching this glob. Repeatable.").Strings()
	cmd.noSplits = extract.Flag("no-splits", "Skip split entries instead of loading split archives.").Bool()
}

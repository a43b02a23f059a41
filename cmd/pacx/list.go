package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"

	"github.com/logicossoftware/go-pacx"
)

// listCommand prints the types and files of each archive.
type listCommand struct {
	files *[]string
}

func (cmd *listCommand) run(*kingpin.ParseContext) error {
	for _, f := range *cmd.files {
		a, err := pacx.ReadFile(fs, f, pacx.WithLogger(logger))
		if err != nil {
			return err
		}
		cmd.print(f, a)
	}
	return nil
}

func (cmd *listCommand) print(name string, a *pacx.Archive) {
	fmt.Printf("%s:\n", name)
	for _, t := range a.Types {
		fmt.Printf("  %s (%d files)\n", t.Name, len(t.Files))
		for _, f := range t.Files {
			if f.NoData {
				fmt.Printf("    %-40s %10s\n", t.FileName(f), "split")
				continue
			}
			fmt.Printf("    %-40s %10s\n", t.FileName(f), humanize.IBytes(uint64(len(f.Data))))
		}
	}
	for _, p := range a.Proxies {
		fmt.Printf("  proxy %s %s -> #%d\n", p.Extension, p.Name, p.Index)
	}
}

func addListCommand(app *kingpin.Application) {
	cmd := &listCommand{}
	list := app.Command("list", "List the entries of archives.").Alias("ls").Action(cmd.run)
	cmd.files = list.Arg("file", "Archives to list.").Required().Strings()
}

package main

import (
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/logicossoftware/go-pacx"
)

type splitsCommand struct {
	file *string
}

func (cmd *splitsCommand) run(*kingpin.ParseContext) error {
	splits, err := pacx.GetSplitList(fs, *cmd.file, pacx.WithLogger(logger))
	if err != nil {
		return err
	}
	for _, s := range splits {
		fmt.Println(s)
	}
	return nil
}

func addSplitsCommand(app *kingpin.Application) {
	cmd := &splitsCommand{}
	splits := app.Command("splits", "Print the split archives an archive declares.").Action(cmd.run)
	cmd.file = splits.Arg("file", "The archive.").Required().String()
}

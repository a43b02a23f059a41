// Command pacx lists, unpacks and builds PACx archives.
package main

import (
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"
)

var (
	logger log.Logger = log.NewNopLogger()
	fs                = afero.NewOsFs()
)

func main() {
	app := kingpin.New("pacx", "Inspect, unpack and build PACx archives.")
	app.HelpFlag.Short('h')
	logLevel := app.Flag("log.level", "Only log messages with the given severity or above.").
		Default("info").Enum("debug", "info", "warn", "error")
	app.PreAction(func(*kingpin.ParseContext) error {
		logger = newLogger(*logLevel)
		return nil
	})

	addListCommand(app)
	addInfoCommand(app)
	addSplitsCommand(app)
	addExtractCommand(app)
	addPackCommand(app)

	kingpin.MustParse(app.Parse(os.Args[1:]))
}

func newLogger(lvl string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "warn":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowInfo()
	}
	return log.With(level.NewFilter(l, allow), "ts", log.DefaultTimestampUTC)
}

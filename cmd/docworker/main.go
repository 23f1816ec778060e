package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docworker/cmd/docworker/commands"
	ferrors "git.home.luguber.info/inful/docworker/internal/foundation/errors"
	"git.home.luguber.info/inful/docworker/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("docworker"),
		kong.Description("Builds and stages documentation for GitHub push jobs."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, &cli)
	os.Exit(ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err))
}

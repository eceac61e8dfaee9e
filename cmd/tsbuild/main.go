// Command tsbuild runs the TypeScript build tasks: clean, copy, lint,
// compile, watch and the default pipeline combining them.
package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/tsbuild/cmd/tsbuild/commands"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("tsbuild"),
		kong.Description("Build tasks for TypeScript projects."),
		kong.UsageOnError(),
		commands.Vars(),
	)

	global := commands.NewGlobal()
	if err := parser.Run(global, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}

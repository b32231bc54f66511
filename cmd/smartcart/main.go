package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/smartcart/cmd/smartcart/commands"
	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("smartcart"),
		kong.Description("Smart shopping cart controller"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	if err := ctx.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}

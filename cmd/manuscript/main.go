package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/manuscript/cmd/manuscript/commands"
	ferrors "git.home.luguber.info/inful/manuscript/internal/foundation/errors"
	"git.home.luguber.info/inful/manuscript/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("manuscript"),
		kong.Description("Assemble multi-file scientific manuscripts with pandoc."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	global := &commands.Global{Logger: slog.Default(), Context: ctx, Out: os.Stdout}
	if err := kctx.Run(global, cli); err != nil {
		cancel()
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}

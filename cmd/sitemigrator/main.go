package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitemigrator/cmd/sitemigrator/commands"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli, commands.Options()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := parser.Run(commands.NewGlobal(ctx), cli)
	stop()

	commands.Report(os.Stderr, err, cli.Verbose)
	os.Exit(commands.ExitCode(err, cli.Verbose))
}

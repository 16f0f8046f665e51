package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"MervalSentinel/internal/cli"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands {
		commander.Register(c, "")
	}
	flag.Parse()
	ctx := context.Background()

	if !cli.NeedsApp(flag.Arg(0)) {
		os.Exit(int(commander.Execute(ctx)))
	}

	app, err := cli.NewApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "MervalSentinel: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	status := commander.Execute(ctx, app)
	_ = app.Logger.Sync()
	os.Exit(int(status))
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/shibukawa/csvsed"
	"github.com/shibukawa/csvsed/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env has to be in the environment before kong resolves env tags.
	if err := csvsed.LoadEnvFiles(); err != nil {
		cli.NewReporter(os.Stderr, false).Error(err)
		os.Exit(1)
	}

	var cmd cli.Command
	kong.Parse(&cmd,
		kong.Name("csvsed"),
		kong.Description("Apply a sed-like modifier to selected columns of a CSV stream."),
		kong.UsageOnError(),
		cli.Vars("csvsed "+version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Run(&cli.Context{
		Ctx:    ctx,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	stop()

	if err != nil {
		cli.NewReporter(os.Stderr, cmd.Verbose).Error(err)
		os.Exit(1)
	}
}

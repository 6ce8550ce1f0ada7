// Package launcher wires the cca command line: configuration, logging, node
// access and the auction commands.
package launcher

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-cca-client/flags"
)

// Version is reported by --version.
var Version = "0.1.0"

const usage = "continuous clearing auction client"

// Launch runs the command line with the process's standard streams.
func Launch(args []string) error {
	return Run(args, os.Stdout, os.Stderr)
}

// Run runs the command line writing results to stdout and logs to stderr.
func Run(args []string, stdout, stderr io.Writer) error {
	return newApp(stdout, stderr).Run(args)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	app := flags.NewApp(Version, usage)
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = flags.Merge(flags.CommonFlags(), flags.NetworkFlags())
	app.Commands = commands()
	app.OnUsageError = onUsageError
	app.Action = func(ctx *cli.Context) error {
		if ctx.NArg() > 0 {
			return &usageError{err: errors.Errorf("unknown command %q", ctx.Args().First())}
		}
		cli.ShowAppHelp(ctx)
		return nil
	}
	return app
}

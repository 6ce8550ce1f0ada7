package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// Global flags controlling configuration, logging and output. They go before
// the command name: cca --output json steps --blocks 7200.
var (
	ConfigFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "YAML configuration file",
	}
	LogFormatFlag = cli.StringFlag{
		Name:  "log.format",
		Usage: "Log output format (text|json)",
		Value: "text",
	}
	VerbosityFlag = cli.IntFlag{
		Name:  "log.verbosity",
		Usage: "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
		Value: 3,
	}
	LogColorFlag = cli.BoolFlag{
		Name:  "log.color",
		Usage: "Colored log output (default: on when stderr is a terminal)",
	}
	SentryDSNFlag = cli.StringFlag{
		Name:  "sentry.dsn",
		Usage: "Report errors to this Sentry DSN",
	}
	OutputFlag = cli.StringFlag{
		Name:  "output",
		Usage: "Result format (text|json)",
		Value: "text",
	}
)

// CommonFlags returns the base set of CLI flags shared across commands.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFileFlag,
		LogFormatFlag,
		VerbosityFlag,
		LogColorFlag,
		SentryDSNFlag,
		OutputFlag,
	}
}

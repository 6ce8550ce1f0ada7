package launcher

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Defaults bundles the baseline configuration values the launcher uses before
// the config file and flags override them.
type Defaults struct {
	RPC     RPCDefaults
	Network NetworkDefaults
	Logging LoggingDefaults
	Output  OutputDefaults
	Reader  ReaderDefaults
}

// RPCDefaults captures JSON-RPC access.
type RPCDefaults struct {
	URL     string        //	Endpoint to dial. Empty means the network preset's public endpoint.
	Timeout time.Duration //	Budget for all RPC calls of one command, dial included.
}

// NetworkDefaults selects the chain.
type NetworkDefaults struct {
	Name string //	Preset name (default, mainnet, sepolia, base, unichain). Supplies chain ID, block time and RPC.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs. On when stderr is a terminal.
}

// OutputDefaults controls how command results are printed on stdout.
type OutputDefaults struct {
	Format string //	text renders tables, json prints one indented document per command.
}

// ReaderDefaults tunes the auction state reader.
type ReaderDefaults struct {
	CacheSize int //	Number of auctions whose immutable parameters stay cached.
}

// DefaultConfig returns a fully populated Defaults instance.
func DefaultConfig() Defaults {
	return Defaults{
		RPC: RPCDefaults{
			Timeout: 30 * time.Second,
		},
		Network: NetworkDefaults{
			Name: "default",
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     isatty.IsTerminal(os.Stderr.Fd()),
		},
		Output: OutputDefaults{
			Format: "text",
		},
		Reader: ReaderDefaults{
			CacheSize: 128,
		},
	}
}

package flags

import (
	"time"

	"gopkg.in/urfave/cli.v1"
)

// Chain access flags.
var (
	NetworkFlag = cli.StringFlag{
		Name:  "network",
		Usage: "Network preset (default|mainnet|sepolia|base|unichain)",
		Value: "default",
	}
	BlockTimeFlag = cli.DurationFlag{
		Name:  "blocktime",
		Usage: "Override the preset block time used to convert durations to blocks",
	}
	RPCFlag = cli.StringFlag{
		Name:  "rpc",
		Usage: "JSON-RPC endpoint (defaults to the network preset's public endpoint)",
	}
	RPCTimeoutFlag = cli.DurationFlag{
		Name:  "rpc.timeout",
		Usage: "Timeout for a whole command's JSON-RPC calls",
		Value: 30 * time.Second,
	}
	ReaderCacheFlag = cli.IntFlag{
		Name:  "cache.auctions",
		Usage: "Number of auctions whose immutable parameters are cached",
		Value: 128,
	}
)

// NetworkFlags covers chain selection and RPC access.
func NetworkFlags() []cli.Flag {
	return []cli.Flag{
		NetworkFlag,
		BlockTimeFlag,
		RPCFlag,
		RPCTimeoutFlag,
		ReaderCacheFlag,
	}
}

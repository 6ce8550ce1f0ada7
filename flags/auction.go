package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// Schedule flags: an auction length in blocks, or as wall-clock time converted
// with the network's block time.
var (
	BlocksFlag = cli.Int64Flag{
		Name:  "blocks",
		Usage: "Auction duration in blocks",
	}
	DurationFlag = cli.DurationFlag{
		Name:  "duration",
		Usage: "Auction duration as time (e.g. 24h), converted to blocks for --network",
	}
	StepsDataFlag = cli.StringFlag{
		Name:  "data",
		Usage: "Hex-encoded auction steps data",
	}
)

// Decimals of the two assets, needed to read human prices.
var (
	CurrencyDecimalsFlag = cli.UintFlag{
		Name:  "currency.decimals",
		Usage: "Decimals of the bid currency",
		Value: 18,
	}
	TokenDecimalsFlag = cli.UintFlag{
		Name:  "token.decimals",
		Usage: "Decimals of the auctioned token",
		Value: 18,
	}
)

// Auction creation.
var (
	FactoryFlag = cli.StringFlag{
		Name:  "factory",
		Usage: "Auction factory address (overrides the configured one)",
	}
	TokenFlag = cli.StringFlag{
		Name:  "token",
		Usage: "Address of the token to auction",
	}
	SupplyFlag = cli.StringFlag{
		Name:  "supply",
		Usage: "Raw amount of tokens to auction",
	}
	CurrencyFlag = cli.StringFlag{
		Name:  "currency",
		Usage: "Address of the bid currency (omit for the native currency)",
	}
	TokensRecipientFlag = cli.StringFlag{
		Name:  "tokens-recipient",
		Usage: "Receiver of unsold tokens",
	}
	FundsRecipientFlag = cli.StringFlag{
		Name:  "funds-recipient",
		Usage: "Receiver of the raised currency",
	}
	StartBlockFlag = cli.Uint64Flag{
		Name:  "start-block",
		Usage: "First auction block (default: the block after the current head)",
	}
	ClaimDelayFlag = cli.Uint64Flag{
		Name:  "claim-delay",
		Usage: "Blocks between the auction end and the claim block",
	}
	TickSpacingFlag = cli.StringFlag{
		Name:  "tick-spacing",
		Usage: "Tick spacing as a raw Q96 integer",
	}
	FloorPriceFlag = cli.StringFlag{
		Name:  "floor-price",
		Usage: "Floor price in currency per token (e.g. 0.10), rounded down to a tick",
	}
	FloorPriceQ96Flag = cli.StringFlag{
		Name:  "floor-price.q96",
		Usage: "Floor price as a raw Q96 integer",
	}
	RequiredRaiseFlag = cli.StringFlag{
		Name:  "required-raise",
		Usage: "Raw currency amount the auction must raise to graduate",
	}
	ValidationHookFlag = cli.StringFlag{
		Name:  "validation-hook",
		Usage: "Optional bid validation contract",
	}
	SaltFlag = cli.StringFlag{
		Name:  "salt",
		Usage: "32-byte hex salt for the deployment address",
	}
	SenderFlag = cli.StringFlag{
		Name:  "sender",
		Usage: "Predict the auction address for this creator (needs RPC)",
	}
)

// Bidding and bid lifecycle.
var (
	AuctionFlag = cli.StringFlag{
		Name:  "auction",
		Usage: "Auction contract address",
	}
	MaxPriceFlag = cli.StringFlag{
		Name:  "max-price",
		Usage: "Highest price in currency per token (e.g. 0.25), rounded down to a tick",
	}
	MaxPriceQ96Flag = cli.StringFlag{
		Name:  "max-price.q96",
		Usage: "Highest price as a raw Q96 integer",
	}
	AmountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "Raw currency amount to bid",
	}
	OwnerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "Owner of the bid",
	}
	HookDataFlag = cli.StringFlag{
		Name:  "hook-data",
		Usage: "Hex data passed to the validation hook",
	}
	OfflineFlag = cli.BoolFlag{
		Name:  "offline",
		Usage: "Skip reading the auction state (no price validation)",
	}
	BidIDFlag = cli.StringFlag{
		Name:  "bid-id",
		Usage: "Bid identifier",
	}
	LastFilledFlag = cli.Uint64Flag{
		Name:  "last-filled",
		Usage: "Last checkpoint block where the bid was fully filled (partial exits)",
	}
	OutbidFlag = cli.Uint64Flag{
		Name:  "outbid",
		Usage: "Block at which the bid was outbid (partial exits)",
	}
	SweepTokensFlag = cli.BoolFlag{
		Name:  "tokens",
		Usage: "Sweep unsold tokens instead of the raised currency",
	}
)

// ScheduleFlags selects an auction length.
func ScheduleFlags() []cli.Flag {
	return []cli.Flag{BlocksFlag, DurationFlag}
}

// DecimalsFlags describes the two assets.
func DecimalsFlags() []cli.Flag {
	return []cli.Flag{CurrencyDecimalsFlag, TokenDecimalsFlag}
}

// CreateFlags configures a new auction.
func CreateFlags() []cli.Flag {
	return Merge([]cli.Flag{
		FactoryFlag,
		TokenFlag,
		SupplyFlag,
		CurrencyFlag,
		TokensRecipientFlag,
		FundsRecipientFlag,
		StartBlockFlag,
		ClaimDelayFlag,
		TickSpacingFlag,
		FloorPriceFlag,
		FloorPriceQ96Flag,
		RequiredRaiseFlag,
		ValidationHookFlag,
		SaltFlag,
		SenderFlag,
	}, ScheduleFlags(), DecimalsFlags())
}

// BidFlags configures a new bid.
func BidFlags() []cli.Flag {
	return Merge([]cli.Flag{
		AuctionFlag,
		MaxPriceFlag,
		MaxPriceQ96Flag,
		AmountFlag,
		OwnerFlag,
		CurrencyFlag,
		TickSpacingFlag,
		HookDataFlag,
		OfflineFlag,
	}, DecimalsFlags())
}

// ExitFlags selects a bid to exit.
func ExitFlags() []cli.Flag {
	return []cli.Flag{AuctionFlag, BidIDFlag, LastFilledFlag, OutbidFlag}
}

package launcher

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-cca-client/cca/price"
	"github.com/rony4d/go-cca-client/flags"
)

// maxDecimals bounds token decimals; 10^36 still leaves room in a Q96 uint256.
const maxDecimals = 36

func missing(names ...string) error {
	return errors.Wrapf(ErrMissingFlag, "--%s", strings.Join(names, " or --"))
}

func invalid(name, format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidFlag, "--%s: "+format, append([]interface{}{name}, args...)...)
}

func stringArg(ctx *cli.Context, f cli.StringFlag) string {
	return strings.TrimSpace(ctx.String(f.Name))
}

func requireString(ctx *cli.Context, f cli.StringFlag) (string, error) {
	v := stringArg(ctx, f)
	if v == "" {
		return "", missing(f.Name)
	}
	return v, nil
}

// addressArg parses an address flag. An absent optional flag yields the zero address.
func addressArg(ctx *cli.Context, f cli.StringFlag, required bool) (common.Address, error) {
	v := stringArg(ctx, f)
	if v == "" {
		if required {
			return common.Address{}, missing(f.Name)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(v) {
		return common.Address{}, invalid(f.Name, "%q is not an address", v)
	}
	return common.HexToAddress(v), nil
}

// bigArg parses a non-negative decimal or 0x-hex integer of at most 256 bits.
// An absent optional flag yields nil.
func bigArg(ctx *cli.Context, f cli.StringFlag, required bool) (*big.Int, error) {
	v := stringArg(ctx, f)
	if v == "" {
		if required {
			return nil, missing(f.Name)
		}
		return nil, nil
	}
	n, ok := math.ParseBig256(v)
	if !ok || n.Sign() < 0 {
		return nil, invalid(f.Name, "%q is not a non-negative 256-bit integer", v)
	}
	return n, nil
}

func bytesArg(ctx *cli.Context, f cli.StringFlag) ([]byte, error) {
	v := stringArg(ctx, f)
	if v == "" {
		return nil, nil
	}
	if !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "0X") {
		v = "0x" + v
	}
	b, err := hexutil.Decode(v)
	if err != nil {
		return nil, invalid(f.Name, "%v", err)
	}
	return b, nil
}

// hashArg parses up to 32 bytes of hex, left-padded to a full word.
func hashArg(ctx *cli.Context, f cli.StringFlag) (common.Hash, error) {
	b, err := bytesArg(ctx, f)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) > common.HashLength {
		return common.Hash{}, invalid(f.Name, "%d bytes, at most %d allowed", len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}

func decimalsArgs(ctx *cli.Context) (currency, token uint8, err error) {
	c := ctx.Uint(flags.CurrencyDecimalsFlag.Name)
	if c > maxDecimals {
		return 0, 0, invalid(flags.CurrencyDecimalsFlag.Name, "%d exceeds %d", c, maxDecimals)
	}
	t := ctx.Uint(flags.TokenDecimalsFlag.Name)
	if t > maxDecimals {
		return 0, 0, invalid(flags.TokenDecimalsFlag.Name, "%d exceeds %d", t, maxDecimals)
	}
	return uint8(c), uint8(t), nil
}

// priceArg reads a price given either in human units or as a raw Q96 integer.
func priceArg(ctx *cli.Context, human, raw cli.StringFlag, currencyDecimals, tokenDecimals uint8) (*big.Int, error) {
	h, r := stringArg(ctx, human), stringArg(ctx, raw)
	switch {
	case h != "" && r != "":
		return nil, invalid(human.Name, "conflicts with --%s", raw.Name)
	case r != "":
		return bigArg(ctx, raw, true)
	case h != "":
		return price.ToQ96(h, currencyDecimals, tokenDecimals)
	}
	return nil, missing(human.Name, raw.Name)
}

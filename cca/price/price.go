// Package price converts between human-readable prices and the Q96 fixed-point
// representation used by auction contracts.
//
// A Q96 price is currency-per-token in raw (smallest) units, multiplied by 2^96.
// Every bid price has to sit on a multiple of the auction's tick spacing.
package price

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits FromQ96 keeps.
const Precision = 18

var (
	// Q96 is 2^96, the fixed-point scale.
	Q96 = new(big.Int).Lsh(big.NewInt(1), 96)

	q96Dec = decimal.NewFromBigInt(Q96, 0)
)

var (
	ErrInvalidPrice     = errors.New("price: invalid price")
	ErrZeroTickSpacing  = errors.New("price: tick spacing must be non-zero")
	ErrZeroPrice        = errors.New("price: price must be non-zero")
	ErrPriceNotAtTick   = errors.New("price: price is not a multiple of the tick spacing")
	ErrBelowFloor       = errors.New("price: price is below the floor price")
	ErrNotAboveClearing = errors.New("price: price must be above the current clearing price")
)

// ToQ96 parses a human price, i.e. how many whole currency units one whole token
// costs, and returns it in Q96 raw units. The fractional remainder is truncated.
func ToQ96(price string, currencyDecimals, tokenDecimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPrice, price)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidPrice, price)
	}

	raw := d.Shift(int32(currencyDecimals) - int32(tokenDecimals))
	return raw.Mul(q96Dec).BigInt(), nil
}

// FromQ96 converts a Q96 raw price back to a human price, rounded to Precision places.
func FromQ96(q *big.Int, currencyDecimals, tokenDecimals uint8) decimal.Decimal {
	raw := decimal.NewFromBigInt(q, int32(tokenDecimals)-int32(currencyDecimals))
	return raw.DivRound(q96Dec, Precision)
}

// AlignToTick rounds price down to the nearest multiple of tickSpacing.
func AlignToTick(price, tickSpacing *big.Int) (*big.Int, error) {
	if tickSpacing.Sign() == 0 {
		return nil, ErrZeroTickSpacing
	}
	rem := new(big.Int).Mod(price, tickSpacing)
	return new(big.Int).Sub(price, rem), nil
}

// IsTickAligned reports whether price is a multiple of tickSpacing.
// A zero spacing aligns nothing.
func IsTickAligned(price, tickSpacing *big.Int) bool {
	if tickSpacing.Sign() == 0 {
		return false
	}
	return new(big.Int).Mod(price, tickSpacing).Sign() == 0
}

// TokensForCurrency returns how many raw tokens amount buys at priceQ96, rounded down.
func TokensForCurrency(amount, priceQ96 *big.Int) (*big.Int, error) {
	if priceQ96.Sign() == 0 {
		return nil, ErrZeroPrice
	}
	n := new(big.Int).Mul(amount, Q96)
	return n.Quo(n, priceQ96), nil
}

// CurrencyForTokens returns the raw currency needed for tokens at priceQ96, rounded up.
func CurrencyForTokens(tokens, priceQ96 *big.Int) *big.Int {
	n := new(big.Int).Mul(tokens, priceQ96)
	n.Add(n, new(big.Int).Sub(Q96, big.NewInt(1)))
	return n.Quo(n, Q96)
}

// ValidateMaxPrice checks a bid's max price against the auction's current state.
func ValidateMaxPrice(maxPrice, clearingPrice, floorPrice, tickSpacing *big.Int) error {
	if tickSpacing.Sign() == 0 {
		return ErrZeroTickSpacing
	}
	if !IsTickAligned(maxPrice, tickSpacing) {
		return fmt.Errorf("%w: %s %% %s != 0", ErrPriceNotAtTick, maxPrice, tickSpacing)
	}
	if maxPrice.Cmp(floorPrice) < 0 {
		return fmt.Errorf("%w: %s < %s", ErrBelowFloor, maxPrice, floorPrice)
	}
	if maxPrice.Cmp(clearingPrice) <= 0 {
		return fmt.Errorf("%w: %s <= %s", ErrNotAboveClearing, maxPrice, clearingPrice)
	}
	return nil
}

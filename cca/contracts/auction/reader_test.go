package auction_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-cca-client/cca/contracts/auction"
	"github.com/rony4d/go-cca-client/testutil"
)

var token = common.HexToAddress("0x4000000000000000000000000000000000000004")

func deployAuction(chain *testutil.Chain) *testutil.Contract {
	return chain.Deploy(auctionAt, auction.ABI()).
		Set("token", token).
		Set("currency", usdc).
		Set("totalSupply", big.NewInt(1_000_000)).
		Set("startBlock", uint64(100)).
		Set("endBlock", uint64(200)).
		Set("claimBlock", uint64(210)).
		Set("tickSpacing", big.NewInt(10)).
		Set("floorPrice", big.NewInt(1_000)).
		Set("clearingPrice", big.NewInt(1_500)).
		Set("currencyRaised", big.NewInt(42_000)).
		Set("isGraduated", true)
}

func TestReaderState(t *testing.T) {
	require := require.New(t)

	chain := testutil.NewChain()
	deployAuction(chain)

	r, err := auction.NewReader(chain, 16, nil)
	require.NoError(err)

	s, err := r.State(context.Background(), auctionAt)
	require.NoError(err)
	require.Equal(auctionAt, s.Address)
	require.Equal(token, s.Token)
	require.Equal(usdc, s.Currency)
	require.False(s.NativeCurrency())
	require.Equal(int64(1_000_000), s.TotalSupply.Int64())
	require.Equal(uint64(100), s.StartBlock)
	require.Equal(uint64(200), s.EndBlock)
	require.Equal(uint64(210), s.ClaimBlock)
	require.Equal(int64(10), s.TickSpacing.Int64())
	require.Equal(int64(1_000), s.FloorPrice.Int64())
	require.Equal(int64(1_500), s.ClearingPrice.Int64())
	require.Equal(int64(42_000), s.CurrencyRaised.Int64())
	require.True(s.Graduated)
}

func TestReaderCachesParams(t *testing.T) {
	require := require.New(t)

	chain := testutil.NewChain()
	deployAuction(chain)

	r, err := auction.NewReader(chain, 16, nil)
	require.NoError(err)

	for i := 0; i < 3; i++ {
		_, err := r.State(context.Background(), auctionAt)
		require.NoError(err)
	}
	require.Equal(1, chain.Calls("startBlock"), "immutable params are fetched once")
	require.Equal(3, chain.Calls("clearingPrice"), "live values are fetched every time")
}

func TestReaderConcurrent(t *testing.T) {
	chain := testutil.NewChain()
	deployAuction(chain)

	r, err := auction.NewReader(chain, 16, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.State(context.Background(), auctionAt)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, chain.Calls("isGraduated"))
}

func TestReaderErrors(t *testing.T) {
	rpcDown := errors.New("connection refused")

	r, err := auction.NewReader(testutil.NewChain(testutil.WithError(rpcDown)), 16, nil)
	require.NoError(t, err)

	_, err = r.State(context.Background(), auctionAt)
	var callErr *auction.CallError
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "token", callErr.Method)
	assert.Contains(t, callErr.Error(), "call token on "+auctionAt.Hex()+": ")
	assert.Contains(t, callErr.Error(), "connection refused")
	assert.ErrorIs(t, err, rpcDown)

	// A deployed contract missing a view reverts.
	chain := testutil.NewChain()
	chain.Deploy(auctionAt, auction.ABI()).Set("token", token)
	r, err = auction.NewReader(chain, 16, nil)
	require.NoError(t, err)

	_, err = r.Params(context.Background(), auctionAt)
	require.True(t, errors.As(err, &callErr))
	assert.Equal(t, "currency", callErr.Method)
	assert.ErrorIs(t, err, testutil.ErrReverted)

	// Nothing deployed at all.
	_, err = r.Params(context.Background(), usdc)
	assert.Error(t, err)

	_, err = auction.NewReader(chain, 0, nil)
	assert.Error(t, err)
}

func TestPhase(t *testing.T) {
	p := auction.Params{StartBlock: 100, EndBlock: 200, ClaimBlock: 210}

	for block, want := range map[uint64]auction.Phase{
		0:    auction.PhasePending,
		99:   auction.PhasePending,
		100:  auction.PhaseActive,
		199:  auction.PhaseActive,
		200:  auction.PhaseEnded,
		209:  auction.PhaseEnded,
		210:  auction.PhaseClaimable,
		1000: auction.PhaseClaimable,
	} {
		assert.Equal(t, want, p.Phase(block), "block %d", block)
	}

	// Claims open right at the end when there is no delay.
	p.ClaimBlock = p.EndBlock
	assert.Equal(t, auction.PhaseClaimable, p.Phase(200))
}

package auction

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Phase is the lifecycle stage of an auction relative to a block.
type Phase string

const (
	PhasePending   Phase = "pending"   // before the start block
	PhaseActive    Phase = "active"    // bids accepted
	PhaseEnded     Phase = "ended"     // no more bids, claims not yet open
	PhaseClaimable Phase = "claimable" // tokens can be claimed
)

// Params are the values an auction fixes at deployment. They never change, so
// the Reader caches them.
type Params struct {
	Token       common.Address `json:"token"`
	Currency    common.Address `json:"currency"`
	TotalSupply *big.Int       `json:"totalSupply"`
	StartBlock  uint64         `json:"startBlock"`
	EndBlock    uint64         `json:"endBlock"`
	ClaimBlock  uint64         `json:"claimBlock"`
	TickSpacing *big.Int       `json:"tickSpacing"`
	FloorPrice  *big.Int       `json:"floorPrice"`
}

// State is a snapshot of an auction.
type State struct {
	Address common.Address `json:"address"`
	Params
	ClearingPrice  *big.Int `json:"clearingPrice"`
	CurrencyRaised *big.Int `json:"currencyRaised"`
	Graduated      bool     `json:"graduated"`
}

// Phase derives the lifecycle stage at block.
func (p Params) Phase(block uint64) Phase {
	switch {
	case block < p.StartBlock:
		return PhasePending
	case block < p.EndBlock:
		return PhaseActive
	case block < p.ClaimBlock:
		return PhaseEnded
	default:
		return PhaseClaimable
	}
}

// NativeCurrency reports whether bids are paid in the chain's native coin.
func (p Params) NativeCurrency() bool {
	return p.Currency == (common.Address{})
}

// CallError is a failed view call.
type CallError struct {
	Contract common.Address
	Method   string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("call %s on %s: %v", e.Method, e.Contract.Hex(), e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// Reader fetches auction state through any bind.ContractCaller.
// It is safe for concurrent use.
type Reader struct {
	caller bind.ContractCaller
	params *lru.Cache // common.Address -> Params
	log    logrus.FieldLogger
}

// NewReader creates a Reader caching the parameters of up to cacheSize auctions.
func NewReader(caller bind.ContractCaller, cacheSize int, log logrus.FieldLogger) (*Reader, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "params cache of size %d", cacheSize)
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Reader{
		caller: caller,
		params: cache,
		log:    log,
	}, nil
}

// Params returns the immutable parameters of the auction at addr.
func (r *Reader) Params(ctx context.Context, addr common.Address) (Params, error) {
	if cached, ok := r.params.Get(addr); ok {
		r.log.WithField("auction", addr.Hex()).Debug("Auction parameters from cache")
		return cached.(Params), nil
	}

	c := r.bind(ctx, addr)
	var (
		p   Params
		err error
	)
	if p.Token, err = c.getAddress("token"); err != nil {
		return Params{}, err
	}
	if p.Currency, err = c.getAddress("currency"); err != nil {
		return Params{}, err
	}
	if p.TotalSupply, err = c.getBig("totalSupply"); err != nil {
		return Params{}, err
	}
	if p.StartBlock, err = c.getUint64("startBlock"); err != nil {
		return Params{}, err
	}
	if p.EndBlock, err = c.getUint64("endBlock"); err != nil {
		return Params{}, err
	}
	if p.ClaimBlock, err = c.getUint64("claimBlock"); err != nil {
		return Params{}, err
	}
	if p.TickSpacing, err = c.getBig("tickSpacing"); err != nil {
		return Params{}, err
	}
	if p.FloorPrice, err = c.getBig("floorPrice"); err != nil {
		return Params{}, err
	}

	r.params.Add(addr, p)
	r.log.WithFields(logrus.Fields{
		"auction": addr.Hex(),
		"start":   p.StartBlock,
		"end":     p.EndBlock,
		"claim":   p.ClaimBlock,
	}).Debug("Auction parameters fetched")
	return p, nil
}

// State returns the parameters together with the live auction values.
func (r *Reader) State(ctx context.Context, addr common.Address) (State, error) {
	p, err := r.Params(ctx, addr)
	if err != nil {
		return State{}, errors.Wrap(err, "read auction parameters")
	}

	c := r.bind(ctx, addr)
	s := State{Address: addr, Params: p}
	if s.ClearingPrice, err = c.getBig("clearingPrice"); err != nil {
		return State{}, err
	}
	if s.CurrencyRaised, err = c.getBig("currencyRaised"); err != nil {
		return State{}, err
	}
	if s.Graduated, err = c.getBool("isGraduated"); err != nil {
		return State{}, err
	}
	return s, nil
}

// boundCall performs zero-argument view calls against one contract.
type boundCall struct {
	ctx      context.Context
	addr     common.Address
	contract *bind.BoundContract
}

func (r *Reader) bind(ctx context.Context, addr common.Address) boundCall {
	return boundCall{
		ctx:      ctx,
		addr:     addr,
		contract: bind.NewBoundContract(addr, parsed, r.caller, nil, nil),
	}
}

func (c boundCall) call(method string) (interface{}, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: c.ctx}, &out, method); err != nil {
		return nil, &CallError{Contract: c.addr, Method: method, Err: err}
	}
	if len(out) != 1 {
		return nil, &CallError{Contract: c.addr, Method: method, Err: errors.Errorf("got %d return values", len(out))}
	}
	return out[0], nil
}

func (c boundCall) getBig(method string) (*big.Int, error) {
	out, err := c.call(method)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out, new(*big.Int)).(**big.Int), nil
}

func (c boundCall) getUint64(method string) (uint64, error) {
	out, err := c.call(method)
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out, new(uint64)).(*uint64), nil
}

func (c boundCall) getAddress(method string) (common.Address, error) {
	out, err := c.call(method)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out, new(common.Address)).(*common.Address), nil
}

func (c boundCall) getBool(method string) (bool, error) {
	out, err := c.call(method)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out, new(bool)).(*bool), nil
}

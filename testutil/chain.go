// Package testutil provides fixtures shared by the client's tests, most
// notably Chain, a fake RPC backend with canned contract responses.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ErrReverted is returned for calls to methods that have no canned result.
var ErrReverted = errors.New("execution reverted")

// Chain is an in-memory stand-in for an Ethereum JSON-RPC endpoint. It
// implements bind.ContractCaller by answering eth_call from canned results
// and reports a fixed head block.
type Chain struct {
	mu        sync.Mutex
	head      uint64
	chainID   *big.Int
	contracts map[common.Address]*Contract
	calls     map[string]int
	err       error
	closed    bool
}

// Contract holds the canned view results of one deployed contract.
type Contract struct {
	abi     abi.ABI
	results map[string][]interface{}
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithHead sets the block number BlockNumber reports.
func WithHead(head uint64) ChainOption {
	return func(c *Chain) {
		c.head = head
	}
}

// WithChainID sets the chain ID ChainID reports. The default is 31337.
func WithChainID(id uint64) ChainOption {
	return func(c *Chain) {
		c.chainID = new(big.Int).SetUint64(id)
	}
}

// WithBigChainID sets a chain ID of any size, for nodes reporting IDs above 64 bits.
func WithBigChainID(id *big.Int) ChainOption {
	return func(c *Chain) {
		c.chainID = new(big.Int).Set(id)
	}
}

// WithError makes every RPC fail with err.
func WithError(err error) ChainOption {
	return func(c *Chain) {
		c.err = err
	}
}

// NewChain creates an empty chain.
func NewChain(options ...ChainOption) *Chain {
	c := &Chain{
		chainID:   big.NewInt(31337),
		contracts: make(map[common.Address]*Contract),
		calls:     make(map[string]int),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Deploy registers a contract at addr. Calls are decoded with contractABI.
func (c *Chain) Deploy(addr common.Address, contractABI abi.ABI) *Contract {
	c.mu.Lock()
	defer c.mu.Unlock()

	ct := &Contract{abi: contractABI, results: make(map[string][]interface{})}
	c.contracts[addr] = ct
	return ct
}

// Set stores the values returned by method. Values must match the ABI outputs.
func (ct *Contract) Set(method string, values ...interface{}) *Contract {
	ct.results[method] = values
	return ct
}

// SetHead moves the head block.
func (c *Chain) SetHead(head uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = head
}

// Calls returns how many times method was called on any contract.
func (c *Chain) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// Closed reports whether Close was called.
func (c *Chain) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// CodeAt returns non-empty code for deployed contracts.
func (c *Chain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	if _, ok := c.contracts[contract]; !ok {
		return nil, nil
	}
	return []byte{0x60, 0x80}, nil
}

// CallContract decodes the selector and packs the canned outputs.
func (c *Chain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	if call.To == nil {
		return nil, fmt.Errorf("%w: no target", ErrReverted)
	}
	ct, ok := c.contracts[*call.To]
	if !ok {
		// Empty output makes bind report ErrNoCode.
		return nil, nil
	}
	if len(call.Data) < 4 {
		return nil, fmt.Errorf("%w: short calldata", ErrReverted)
	}
	method, err := ct.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReverted, err)
	}
	c.calls[method.Name]++

	values, ok := ct.results[method.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReverted, method.Name)
	}
	return method.Outputs.Pack(values...)
}

// BlockNumber returns the head block.
func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return 0, c.err
	}
	return c.head, nil
}

// ChainID returns the configured chain ID.
func (c *Chain) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return nil, c.err
	}
	return new(big.Int).Set(c.chainID), nil
}

// Close marks the chain closed.
func (c *Chain) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

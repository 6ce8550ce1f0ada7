package integration

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Package integration provides named network presets for the CCA client.
// A preset bundles what differs between chains (chain ID, block time, a public
// RPC endpoint) so that auction durations can be given as wall-clock time and
// converted to blocks for the right chain.
//
// Usage:
//   preset, _ := integration.GetPresetByName("mainnet")
//   blocks, _ := preset.BlocksFor(24 * time.Hour) // 7200 on 12s blocks
//
// Each preset returns a NetworkPreset that the launcher merges into its config
// before applying flag overrides.

// ErrZeroBlockTime is returned by BlocksFor when the preset has no block time.
var ErrZeroBlockTime = errors.New("integration: block time must be positive")

// NetworkPreset captures the chain-specific values the client needs.
type NetworkPreset struct {
	Name      string        // identifier used by --network
	ChainID   uint64        // EIP-155 chain ID, reported with every unsigned transaction
	BlockTime time.Duration // target block interval used to convert durations to blocks
	RPC       string        // public JSON-RPC endpoint used when --rpc is not given
}

// DefaultPreset is a local development chain (anvil/hardhat defaults).
func DefaultPreset() NetworkPreset {
	return NetworkPreset{
		Name:      "default",
		ChainID:   31337,
		BlockTime: time.Second,
		RPC:       "http://127.0.0.1:8545",
	}
}

// MainnetPreset returns Ethereum mainnet: 12 second slots.
func MainnetPreset() NetworkPreset {
	return NetworkPreset{
		Name:      "mainnet",
		ChainID:   1,
		BlockTime: 12 * time.Second,
		RPC:       "https://ethereum-rpc.publicnode.com",
	}
}

// SepoliaPreset returns the Sepolia testnet, which mirrors mainnet timing.
func SepoliaPreset() NetworkPreset {
	cfg := MainnetPreset()
	cfg.Name = "sepolia"
	cfg.ChainID = 11155111
	cfg.RPC = "https://ethereum-sepolia-rpc.publicnode.com"
	return cfg
}

// BasePreset returns Base mainnet: 2 second L2 blocks.
func BasePreset() NetworkPreset {
	return NetworkPreset{
		Name:      "base",
		ChainID:   8453,
		BlockTime: 2 * time.Second,
		RPC:       "https://mainnet.base.org",
	}
}

// UnichainPreset returns Unichain mainnet: 1 second L2 blocks.
func UnichainPreset() NetworkPreset {
	return NetworkPreset{
		Name:      "unichain",
		ChainID:   130,
		BlockTime: time.Second,
		RPC:       "https://mainnet.unichain.org",
	}
}

var presets = map[string]func() NetworkPreset{
	"default":  DefaultPreset,
	"mainnet":  MainnetPreset,
	"sepolia":  SepoliaPreset,
	"base":     BasePreset,
	"unichain": UnichainPreset,
}

// PresetNames lists the known preset identifiers in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllPresets returns every preset, ordered by name.
func AllPresets() []NetworkPreset {
	names := PresetNames()
	out := make([]NetworkPreset, len(names))
	for i, name := range names {
		out[i] = presets[name]()
	}
	return out
}

// GetPresetByName looks up a preset by its identifier. Names are case sensitive.
//
// Example:
//
//	preset, err := integration.GetPresetByName("base")
//	if err != nil {
//	    return err
//	}
func GetPresetByName(name string) (NetworkPreset, error) {
	build, ok := presets[name]
	if !ok {
		return NetworkPreset{}, fmt.Errorf("unknown network: %q (valid: %v)", name, PresetNames())
	}
	return build(), nil
}

// ApplyPreset merges a preset into target. Only non-zero preset fields override,
// so a partial preset (e.g. only a block time) keeps the rest of target intact.
func ApplyPreset(target *NetworkPreset, preset NetworkPreset) {
	if preset.Name != "" {
		target.Name = preset.Name
	}
	if preset.ChainID != 0 {
		target.ChainID = preset.ChainID
	}
	if preset.BlockTime > 0 {
		target.BlockTime = preset.BlockTime
	}
	if preset.RPC != "" {
		target.RPC = preset.RPC
	}
}

// BlocksFor converts a wall-clock duration into a block count, rounding up so
// the auction never ends early. Non-positive durations yield zero blocks.
func (p NetworkPreset) BlocksFor(d time.Duration) (int64, error) {
	if p.BlockTime <= 0 {
		return 0, ErrZeroBlockTime
	}
	if d <= 0 {
		return 0, nil
	}
	blocks := d / p.BlockTime
	if d%p.BlockTime != 0 {
		blocks++
	}
	return int64(blocks), nil
}

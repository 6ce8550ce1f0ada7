// Package factory builds calldata for the Continuous Clearing Auction factory.
//
// Overview:
//
//	A CCA auction is created by transferring the token supply to the factory and
//	calling initializeDistribution with an ABI-encoded AuctionParameters tuple.
//	The factory deploys the auction at a deterministic address, which can be
//	predicted beforehand with getAuctionAddress.
//
// This package never signs or sends anything. It returns raw calldata that a
// wallet or external signer turns into a transaction.
package factory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-cca-client/cca/price"
	"github.com/rony4d/go-cca-client/cca/steps"
)

var (
	// ContractABI is the JSON ABI of the factory methods this client uses:
	//   - initializeDistribution(address token, uint256 amount, bytes configData, bytes32 salt)
	//   - getAuctionAddress(address token, uint256 amount, bytes configData, bytes32 salt, address sender)
	ContractABI string = "[{\"inputs\":[{\"internalType\":\"address\",\"name\":\"token\",\"type\":\"address\"},{\"internalType\":\"uint256\",\"name\":\"amount\",\"type\":\"uint256\"},{\"internalType\":\"bytes\",\"name\":\"configData\",\"type\":\"bytes\"},{\"internalType\":\"bytes32\",\"name\":\"salt\",\"type\":\"bytes32\"}],\"name\":\"initializeDistribution\",\"outputs\":[{\"internalType\":\"address\",\"name\":\"distributionContract\",\"type\":\"address\"}],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"address\",\"name\":\"token\",\"type\":\"address\"},{\"internalType\":\"uint256\",\"name\":\"amount\",\"type\":\"uint256\"},{\"internalType\":\"bytes\",\"name\":\"configData\",\"type\":\"bytes\"},{\"internalType\":\"bytes32\",\"name\":\"salt\",\"type\":\"bytes32\"},{\"internalType\":\"address\",\"name\":\"sender\",\"type\":\"address\"}],\"name\":\"getAuctionAddress\",\"outputs\":[{\"internalType\":\"address\",\"name\":\"\",\"type\":\"address\"}],\"stateMutability\":\"view\",\"type\":\"function\"}]"
)

var (
	// Method IDs are the first 4 bytes of keccak256 of the method signature.
	initializeDistributionMethodID []byte // initializeDistribution(address,uint256,bytes,bytes32)
	getAuctionAddressMethodID      []byte // getAuctionAddress(address,uint256,bytes,bytes32,address)

	parsed     abi.ABI
	configArgs abi.Arguments
)

var (
	ErrInvalidParameters = errors.New("factory: invalid auction parameters")
	ErrUnknownMethod     = errors.New("factory: unknown method")
)

// init parses the ABI, extracts the method IDs and builds the
// AuctionParameters tuple type used for configData.
func init() {
	var err error
	parsed, err = abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}

	for name, constID := range map[string]*[]byte{
		"initializeDistribution": &initializeDistributionMethodID,
		"getAuctionAddress":      &getAuctionAddressMethodID,
	} {
		method, exist := parsed.Methods[name]
		if !exist {
			panic("unknown factory method")
		}
		*constID = make([]byte, len(method.ID))
		copy(*constID, method.ID)
	}

	tuple, err := abi.NewType("tuple", "struct AuctionParameters", []abi.ArgumentMarshaling{
		{Name: "currency", Type: "address"},
		{Name: "tokensRecipient", Type: "address"},
		{Name: "fundsRecipient", Type: "address"},
		{Name: "startBlock", Type: "uint64"},
		{Name: "endBlock", Type: "uint64"},
		{Name: "claimBlock", Type: "uint64"},
		{Name: "tickSpacing", Type: "uint256"},
		{Name: "validationHook", Type: "address"},
		{Name: "floorPrice", Type: "uint256"},
		{Name: "requiredCurrencyRaised", Type: "uint128"},
		{Name: "auctionStepsData", Type: "bytes"},
	})
	if err != nil {
		panic(err)
	}
	configArgs = abi.Arguments{{Name: "parameters", Type: tuple}}
}

// AuctionParameters mirrors the on-chain struct of the same name. Field tags
// bind each field to its tuple component.
type AuctionParameters struct {
	Currency               common.Address `abi:"currency"`
	TokensRecipient        common.Address `abi:"tokensRecipient"`
	FundsRecipient         common.Address `abi:"fundsRecipient"`
	StartBlock             uint64         `abi:"startBlock"`
	EndBlock               uint64         `abi:"endBlock"`
	ClaimBlock             uint64         `abi:"claimBlock"`
	TickSpacing            *big.Int       `abi:"tickSpacing"`
	ValidationHook         common.Address `abi:"validationHook"`
	FloorPrice             *big.Int       `abi:"floorPrice"`
	RequiredCurrencyRaised *big.Int       `abi:"requiredCurrencyRaised"`
	AuctionStepsData       []byte         `abi:"auctionStepsData"`
}

// Config is the user-facing description of an auction. Block numbers are
// absolute, Duration and ClaimDelay are counted in blocks.
type Config struct {
	Currency               common.Address // zero address means the native currency
	TokensRecipient        common.Address // receives unsold tokens
	FundsRecipient         common.Address // receives raised currency
	StartBlock             uint64
	Duration               int64
	ClaimDelay             uint64 // blocks between end and claim
	TickSpacing            *big.Int
	ValidationHook         common.Address // optional bid validation contract
	FloorPrice             *big.Int       // Q96
	RequiredCurrencyRaised *big.Int       // graduation threshold, may be nil
}

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// NewAuctionParameters validates cfg and derives the on-chain parameters,
// including the linear step schedule for cfg.Duration.
func NewAuctionParameters(cfg Config) (AuctionParameters, error) {
	stepsData, err := steps.Encode(cfg.Duration)
	if err != nil {
		return AuctionParameters{}, err
	}

	// steps.Encode guarantees Duration > 0.
	duration := uint64(cfg.Duration)
	if cfg.StartBlock > math.MaxUint64-duration {
		return AuctionParameters{}, fmt.Errorf("%w: start block %d + %d blocks overflows", ErrInvalidParameters, cfg.StartBlock, duration)
	}
	endBlock := cfg.StartBlock + duration
	if endBlock > math.MaxUint64-cfg.ClaimDelay {
		return AuctionParameters{}, fmt.Errorf("%w: claim delay %d overflows", ErrInvalidParameters, cfg.ClaimDelay)
	}

	if cfg.TickSpacing == nil || cfg.TickSpacing.Sign() <= 0 {
		return AuctionParameters{}, fmt.Errorf("%w: %v", ErrInvalidParameters, price.ErrZeroTickSpacing)
	}
	if cfg.FloorPrice == nil || cfg.FloorPrice.Sign() <= 0 {
		return AuctionParameters{}, fmt.Errorf("%w: %v", ErrInvalidParameters, price.ErrZeroPrice)
	}
	if !price.IsTickAligned(cfg.FloorPrice, cfg.TickSpacing) {
		return AuctionParameters{}, fmt.Errorf("%w: floor price %s: %v", ErrInvalidParameters, cfg.FloorPrice, price.ErrPriceNotAtTick)
	}

	required := new(big.Int)
	if cfg.RequiredCurrencyRaised != nil {
		required.Set(cfg.RequiredCurrencyRaised)
	}
	if required.Sign() < 0 || required.Cmp(maxUint128) > 0 {
		return AuctionParameters{}, fmt.Errorf("%w: required currency %s does not fit in uint128", ErrInvalidParameters, required)
	}

	if cfg.TokensRecipient == (common.Address{}) || cfg.FundsRecipient == (common.Address{}) {
		return AuctionParameters{}, fmt.Errorf("%w: recipients must be set", ErrInvalidParameters)
	}

	return AuctionParameters{
		Currency:               cfg.Currency,
		TokensRecipient:        cfg.TokensRecipient,
		FundsRecipient:         cfg.FundsRecipient,
		StartBlock:             cfg.StartBlock,
		EndBlock:               endBlock,
		ClaimBlock:             endBlock + cfg.ClaimDelay,
		TickSpacing:            new(big.Int).Set(cfg.TickSpacing),
		ValidationHook:         cfg.ValidationHook,
		FloorPrice:             new(big.Int).Set(cfg.FloorPrice),
		RequiredCurrencyRaised: required,
		AuctionStepsData:       stepsData,
	}, nil
}

// EncodeConfig returns abi.encode(params), the configData argument of the factory.
func EncodeConfig(params AuctionParameters) ([]byte, error) {
	return configArgs.Pack(params)
}

// DecodeConfig is the inverse of EncodeConfig.
func DecodeConfig(data []byte) (AuctionParameters, error) {
	out, err := configArgs.Unpack(data)
	if err != nil {
		return AuctionParameters{}, err
	}
	params := *abi.ConvertType(out[0], new(AuctionParameters)).(*AuctionParameters)
	return params, nil
}

// InitializeDistribution returns the full calldata creating an auction for
// amount raw units of token.
func InitializeDistribution(token common.Address, amount *big.Int, params AuctionParameters, salt common.Hash) ([]byte, error) {
	configData, err := EncodeConfig(params)
	if err != nil {
		return nil, err
	}
	return parsed.Pack("initializeDistribution", token, amount, configData, [32]byte(salt))
}

// PredictAuctionAddress asks the factory where an auction created by sender
// with the same arguments would be deployed.
func PredictAuctionAddress(ctx context.Context, caller bind.ContractCaller, factory, token common.Address, amount *big.Int, params AuctionParameters, salt common.Hash, sender common.Address) (common.Address, error) {
	configData, err := EncodeConfig(params)
	if err != nil {
		return common.Address{}, err
	}

	contract := bind.NewBoundContract(factory, parsed, caller, nil, nil)
	var out []interface{}
	err = contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAuctionAddress", token, amount, configData, [32]byte(salt), sender)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// ABI returns the parsed factory ABI.
func ABI() abi.ABI {
	return parsed
}

// MethodID returns the 4-byte selector of a factory method.
func MethodID(name string) ([]byte, error) {
	switch name {
	case "initializeDistribution":
		return initializeDistributionMethodID, nil
	case "getAuctionAddress":
		return getAuctionAddressMethodID, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, name)
}

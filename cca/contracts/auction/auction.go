// Package auction builds calldata for a deployed Continuous Clearing Auction and
// reads its on-chain state.
//
// Overview:
//
//	Bidders submit a budget (amount) together with the highest price they are
//	willing to pay (maxPrice, Q96). Every block the auction clears a share of
//	the supply given by its step schedule; bids priced at or below the new
//	clearing price are outbid and can be exited. After the claim block the
//	filled part of each bid is claimed as tokens.
//
// Transactions are returned as unsigned TxRequests for an external signer.
package auction

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

var (
	// ContractABI is the JSON ABI of the auction methods this client uses.
	// Writes:
	//   - submitBid(uint256 maxPrice, uint128 amount, address owner, bytes hookData) payable
	//   - exitBid(uint256 bidId)
	//   - exitPartiallyFilledBid(uint256 bidId, uint64 lastFullyFilledCheckpointBlock, uint64 outbidBlock)
	//   - claimTokens(uint256 bidId)
	//   - checkpoint(), sweepCurrency(), sweepUnsoldTokens()
	// Views: clearingPrice, floorPrice, tickSpacing, startBlock, endBlock,
	// claimBlock, currency, token, totalSupply, currencyRaised, isGraduated.
	ContractABI string = "[{\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"maxPrice\",\"type\":\"uint256\"},{\"internalType\":\"uint128\",\"name\":\"amount\",\"type\":\"uint128\"},{\"internalType\":\"address\",\"name\":\"owner\",\"type\":\"address\"},{\"internalType\":\"bytes\",\"name\":\"hookData\",\"type\":\"bytes\"}],\"name\":\"submitBid\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"bidId\",\"type\":\"uint256\"}],\"stateMutability\":\"payable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"bidId\",\"type\":\"uint256\"}],\"name\":\"exitBid\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"bidId\",\"type\":\"uint256\"},{\"internalType\":\"uint64\",\"name\":\"lastFullyFilledCheckpointBlock\",\"type\":\"uint64\"},{\"internalType\":\"uint64\",\"name\":\"outbidBlock\",\"type\":\"uint64\"}],\"name\":\"exitPartiallyFilledBid\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[{\"internalType\":\"uint256\",\"name\":\"bidId\",\"type\":\"uint256\"}],\"name\":\"claimTokens\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"checkpoint\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"sweepCurrency\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"sweepUnsoldTokens\",\"outputs\":[],\"stateMutability\":\"nonpayable\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"clearingPrice\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"floorPrice\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"tickSpacing\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"startBlock\",\"outputs\":[{\"internalType\":\"uint64\",\"name\":\"\",\"type\":\"uint64\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"endBlock\",\"outputs\":[{\"internalType\":\"uint64\",\"name\":\"\",\"type\":\"uint64\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"claimBlock\",\"outputs\":[{\"internalType\":\"uint64\",\"name\":\"\",\"type\":\"uint64\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"currency\",\"outputs\":[{\"internalType\":\"address\",\"name\":\"\",\"type\":\"address\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"token\",\"outputs\":[{\"internalType\":\"address\",\"name\":\"\",\"type\":\"address\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"totalSupply\",\"outputs\":[{\"internalType\":\"uint128\",\"name\":\"\",\"type\":\"uint128\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"currencyRaised\",\"outputs\":[{\"internalType\":\"uint256\",\"name\":\"\",\"type\":\"uint256\"}],\"stateMutability\":\"view\",\"type\":\"function\"},{\"inputs\":[],\"name\":\"isGraduated\",\"outputs\":[{\"internalType\":\"bool\",\"name\":\"\",\"type\":\"bool\"}],\"stateMutability\":\"view\",\"type\":\"function\"}]"
)

var (
	// Method IDs of the write methods, keyed by name.
	methodIDs = map[string][]byte{}

	parsed abi.ABI
)

var (
	ErrInvalidBid    = errors.New("auction: invalid bid")
	ErrUnknownMethod = errors.New("auction: unknown method")
)

// init parses the ABI and extracts the selectors of the write methods.
func init() {
	var err error
	parsed, err = abi.JSON(strings.NewReader(ContractABI))
	if err != nil {
		panic(err)
	}

	for _, name := range []string{
		"submitBid",
		"exitBid",
		"exitPartiallyFilledBid",
		"claimTokens",
		"checkpoint",
		"sweepCurrency",
		"sweepUnsoldTokens",
	} {
		method, exist := parsed.Methods[name]
		if !exist {
			panic("unknown auction method")
		}
		id := make([]byte, len(method.ID))
		copy(id, method.ID)
		methodIDs[name] = id
	}
}

// ABI returns the parsed auction ABI.
func ABI() abi.ABI {
	return parsed
}

// MethodID returns the 4-byte selector of a write method.
func MethodID(name string) ([]byte, error) {
	id, ok := methodIDs[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownMethod, name)
	}
	return id, nil
}

// TxRequest is an unsigned transaction: target, attached native value and calldata.
type TxRequest struct {
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value"`
	Data  hexutil.Bytes  `json:"data"`
}

// BidRequest describes a new bid.
type BidRequest struct {
	Auction  common.Address
	Currency common.Address // zero address: the bid is paid in the native currency
	MaxPrice *big.Int       // Q96, must be on a tick
	Amount   *big.Int       // raw currency units
	Owner    common.Address // receives the tokens and refunds
	HookData []byte
}

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// SubmitBid returns the submitBid transaction. For native-currency auctions
// the amount is attached as value; ERC20 auctions need a prior approval.
func SubmitBid(req BidRequest) (TxRequest, error) {
	if req.MaxPrice == nil || req.MaxPrice.Sign() <= 0 {
		return TxRequest{}, errors.Wrap(ErrInvalidBid, "max price must be positive")
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return TxRequest{}, errors.Wrap(ErrInvalidBid, "amount must be positive")
	}
	if req.Amount.Cmp(maxUint128) > 0 {
		return TxRequest{}, errors.Wrapf(ErrInvalidBid, "amount %s does not fit in uint128", req.Amount)
	}
	if req.Owner == (common.Address{}) {
		return TxRequest{}, errors.Wrap(ErrInvalidBid, "owner must be set")
	}

	hookData := req.HookData
	if hookData == nil {
		hookData = []byte{}
	}
	data, err := parsed.Pack("submitBid", req.MaxPrice, req.Amount, req.Owner, hookData)
	if err != nil {
		return TxRequest{}, err
	}

	value := new(big.Int)
	if req.Currency == (common.Address{}) {
		value.Set(req.Amount)
	}
	return TxRequest{To: req.Auction, Value: (*hexutil.Big)(value), Data: data}, nil
}

// ExitBid returns the transaction exiting a bid that was outbid or ended unfilled.
func ExitBid(auction common.Address, bidID *big.Int) (TxRequest, error) {
	return pack(auction, "exitBid", bidID)
}

// ExitPartiallyFilledBid exits a bid that was partially filled. The hints name
// the last checkpoint where the bid was fully filled and the block it was outbid at.
func ExitPartiallyFilledBid(auction common.Address, bidID *big.Int, lastFullyFilledCheckpointBlock, outbidBlock uint64) (TxRequest, error) {
	return pack(auction, "exitPartiallyFilledBid", bidID, lastFullyFilledCheckpointBlock, outbidBlock)
}

// ClaimTokens returns the transaction claiming the tokens bought by a bid.
func ClaimTokens(auction common.Address, bidID *big.Int) (TxRequest, error) {
	return pack(auction, "claimTokens", bidID)
}

// Checkpoint returns the transaction advancing the clearing price to the current block.
func Checkpoint(auction common.Address) (TxRequest, error) {
	return pack(auction, "checkpoint")
}

// SweepCurrency returns the transaction sending raised funds to the funds recipient.
func SweepCurrency(auction common.Address) (TxRequest, error) {
	return pack(auction, "sweepCurrency")
}

// SweepUnsoldTokens returns the transaction sending unsold tokens to the tokens recipient.
func SweepUnsoldTokens(auction common.Address) (TxRequest, error) {
	return pack(auction, "sweepUnsoldTokens")
}

func pack(auction common.Address, method string, args ...interface{}) (TxRequest, error) {
	for _, arg := range args {
		if id, ok := arg.(*big.Int); ok && (id == nil || id.Sign() < 0) {
			return TxRequest{}, errors.Wrapf(ErrInvalidBid, "%s: bid id must be non-negative", method)
		}
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return TxRequest{}, errors.Wrapf(err, "pack %s", method)
	}
	return TxRequest{To: auction, Value: (*hexutil.Big)(new(big.Int)), Data: data}, nil
}

package launcher

import (
	"errors"

	"github.com/rony4d/go-cca-client/cca/contracts/auction"
	"github.com/rony4d/go-cca-client/cca/contracts/factory"
	"github.com/rony4d/go-cca-client/cca/price"
	"github.com/rony4d/go-cca-client/cca/steps"
	"github.com/rony4d/go-cca-client/integration"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitInput    = 2
	ExitRPC      = 3
)

var (
	ErrMissingFlag      = errors.New("missing required flag")
	ErrInvalidFlag      = errors.New("invalid flag value")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrAuctionNotActive = errors.New("auction is not accepting bids")
)

// inputErrors are the sentinels that mean the user asked for something
// impossible. They map to ExitInput.
var inputErrors = []error{
	ErrMissingFlag,
	ErrInvalidFlag,
	ErrInvalidConfig,
	ErrAuctionNotActive,
	steps.ErrInvalidDuration,
	steps.ErrDurationTooLarge,
	steps.ErrRateOverflow,
	steps.ErrMalformedSteps,
	price.ErrInvalidPrice,
	price.ErrZeroTickSpacing,
	price.ErrZeroPrice,
	price.ErrPriceNotAtTick,
	price.ErrBelowFloor,
	price.ErrNotAboveClearing,
	factory.ErrInvalidParameters,
	auction.ErrInvalidBid,
	integration.ErrZeroBlockTime,
}

// usageError is a command line the flag parser rejected.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return "usage: " + e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// rpcError is a failure talking to the node.
type rpcError struct {
	err error
}

func (e *rpcError) Error() string { return e.err.Error() }
func (e *rpcError) Unwrap() error { return e.err }

func asRPC(err error) error {
	if err == nil {
		return nil
	}
	return &rpcError{err: err}
}

// ExitCode maps an error returned by Run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	// A broken schedule is a bug, whatever the caller did.
	if errors.Is(err, steps.ErrInvariantViolation) {
		return ExitInternal
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return ExitInput
	}
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return ExitInput
		}
	}

	var (
		call *auction.CallError
		rpc  *rpcError
	)
	if errors.As(err, &call) || errors.As(err, &rpc) {
		return ExitRPC
	}
	return ExitInternal
}

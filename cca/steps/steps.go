// Package steps builds the issuance schedule ("auction steps data") consumed by
// Continuous Clearing Auction contracts.
//
// An auction releases its supply over a number of blocks. The release speed is
// expressed in mps (millionths-per-step): over the whole auction the per-block
// rates must add up to exactly TotalMPS. The contract reads the schedule as a
// packed byte string of 8-byte records:
//
//	bits 63..40  mps         (uint24)
//	bits 39..0   blockDelta  (uint40)
//
// For a linear release over d blocks the schedule has one step when d divides
// TotalMPS and two steps otherwise: the remainder blocks get the next-higher
// integer rate so the total is hit without rounding.
package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/rony4d/go-cca-client/utils/bits"
	"github.com/rony4d/go-cca-client/utils/fast"
)

const (
	// TotalMPS is the amount every schedule must release, in mps·blocks.
	TotalMPS uint64 = 10_000_000

	// MPSBits is the width of the rate field.
	MPSBits = 24
	// BlockDeltaBits is the width of the duration field.
	BlockDeltaBits = 40

	// RecordSize is the size of one encoded step in bytes.
	RecordSize = (MPSBits + BlockDeltaBits) / 8
)

var (
	// MaxMPS is the largest rate a record can carry (16,777,215).
	MaxMPS = bits.MaxValue(MPSBits)
	// MaxBlockDelta is the largest block count a record can carry (1,099,511,627,775).
	MaxBlockDelta = bits.MaxValue(BlockDeltaBits)
)

var (
	ErrInvalidDuration    = errors.New("steps: duration must be a positive number of blocks")
	ErrDurationTooLarge   = errors.New("steps: duration does not fit in 40 bits")
	ErrRateOverflow       = errors.New("steps: rate does not fit in 24 bits, choose a longer duration")
	ErrInvariantViolation = errors.New("steps: schedule does not add up")
	ErrMalformedSteps     = errors.New("steps: malformed steps data")
)

// Step is a single issuance-rate record.
type Step struct {
	MPS        uint32 // release rate per block, 24 bits
	BlockDelta uint64 // number of blocks the rate applies for, 40 bits
}

// Schedule is an ordered list of steps. It is a derived value and is never
// mutated after construction.
type Schedule []Step

// Encoded is the packed form of a Schedule, as passed to the auction factory.
type Encoded []byte

// Encoder builds linear schedules for a fixed total.
type Encoder struct {
	total uint64
}

// NewEncoder returns an Encoder for the given total. Production code uses
// TotalMPS through the package-level Encode.
func NewEncoder(total uint64) *Encoder {
	return &Encoder{total: total}
}

var linear = NewEncoder(TotalMPS)

// Encode builds and packs the linear schedule for the requested number of blocks.
func Encode(requestedDuration int64) (Encoded, error) {
	return linear.Encode(requestedDuration)
}

// Build returns the linear schedule for the requested number of blocks.
func Build(requestedDuration int64) (Schedule, error) {
	return linear.Schedule(requestedDuration)
}

// Encode builds and packs the linear schedule for the requested number of blocks.
func (e *Encoder) Encode(requestedDuration int64) (Encoded, error) {
	s, err := e.Schedule(requestedDuration)
	if err != nil {
		return nil, err
	}
	return s.Encode()
}

// Schedule computes the one- or two-step schedule releasing e.total over
// requestedDuration blocks.
func (e *Encoder) Schedule(requestedDuration int64) (Schedule, error) {
	if requestedDuration <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDuration, requestedDuration)
	}
	duration := uint64(requestedDuration)
	if duration > MaxBlockDelta {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrDurationTooLarge, duration, MaxBlockDelta)
	}

	base, rem := e.total/duration, e.total%duration

	top := base
	if rem != 0 {
		top = base + 1
	}
	if top > MaxMPS {
		return nil, fmt.Errorf("%w: %d mps over %d blocks", ErrRateOverflow, top, duration)
	}

	var s Schedule
	if rem == 0 {
		s = Schedule{{MPS: uint32(base), BlockDelta: duration}}
	} else {
		if lower := duration - rem; lower > 0 {
			s = append(s, Step{MPS: uint32(base), BlockDelta: lower})
		}
		s = append(s, Step{MPS: uint32(base + 1), BlockDelta: rem})
	}

	if err := s.Validate(e.total, duration); err != nil {
		// Unreachable unless the arithmetic above is wrong.
		return nil, err
	}
	return s, nil
}

// TotalMPS returns sum(mps * blockDelta) without overflow.
func (s Schedule) TotalMPS() *uint256.Int {
	var (
		sum  = new(uint256.Int)
		prod = new(uint256.Int)
		rate = new(uint256.Int)
		span = new(uint256.Int)
	)
	for _, st := range s {
		rate.SetUint64(uint64(st.MPS))
		span.SetUint64(st.BlockDelta)
		sum.Add(sum, prod.Mul(rate, span))
	}
	return sum
}

// TotalBlocks returns sum(blockDelta) without overflow.
func (s Schedule) TotalBlocks() *uint256.Int {
	var (
		sum  = new(uint256.Int)
		span = new(uint256.Int)
	)
	for _, st := range s {
		sum.Add(sum, span.SetUint64(st.BlockDelta))
	}
	return sum
}

// Validate checks field widths and that the schedule releases exactly total
// over exactly duration blocks.
func (s Schedule) Validate(total, duration uint64) error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty schedule", ErrInvariantViolation)
	}
	for i, st := range s {
		if uint64(st.MPS) > MaxMPS {
			return fmt.Errorf("%w: step %d rate %d", ErrRateOverflow, i, st.MPS)
		}
		if st.BlockDelta == 0 || st.BlockDelta > MaxBlockDelta {
			return fmt.Errorf("%w: step %d block delta %d", ErrInvariantViolation, i, st.BlockDelta)
		}
	}
	if got := s.TotalMPS(); !got.Eq(new(uint256.Int).SetUint64(total)) {
		return fmt.Errorf("%w: releases %s mps, want %d", ErrInvariantViolation, got.ToBig(), total)
	}
	if got := s.TotalBlocks(); !got.Eq(new(uint256.Int).SetUint64(duration)) {
		return fmt.Errorf("%w: spans %s blocks, want %d", ErrInvariantViolation, got.ToBig(), duration)
	}
	return nil
}

// Encode packs the schedule into 8-byte records. Every step must have a
// non-zero block delta.
func (s Schedule) Encode() (Encoded, error) {
	w := fast.NewWriter(make([]byte, 0, len(s)*RecordSize))
	for i, st := range s {
		rec, err := st.pack()
		if err != nil {
			return nil, fmt.Errorf("%w: step %d", err, i)
		}
		w.Write(rec)
	}
	return Encoded(w.Bytes()), nil
}

// pack writes the rate and block delta fields of one record.
func (st Step) pack() ([]byte, error) {
	if st.BlockDelta == 0 {
		return nil, fmt.Errorf("%w: zero block delta", ErrInvariantViolation)
	}
	arr := bits.Array{Bytes: make([]byte, 0, RecordSize)}
	w := bits.NewWriter(&arr)
	if err := w.Write(MPSBits, uint64(st.MPS)); err != nil {
		return nil, fmt.Errorf("%w: rate %d", ErrRateOverflow, st.MPS)
	}
	if err := w.Write(BlockDeltaBits, st.BlockDelta); err != nil {
		return nil, fmt.Errorf("%w: block delta %d", ErrDurationTooLarge, st.BlockDelta)
	}
	return arr.Bytes, nil
}

// unpack reads one record written by pack.
func unpack(rec []byte) (Step, error) {
	r := bits.NewReader(&bits.Array{Bytes: rec})
	mps, err := r.Read(MPSBits)
	if err != nil {
		return Step{}, err
	}
	delta, err := r.Read(BlockDeltaBits)
	if err != nil {
		return Step{}, err
	}
	return Step{MPS: uint32(mps), BlockDelta: delta}, nil
}

// String renders the schedule as "rate×blocks" pairs.
func (s Schedule) String() string {
	parts := make([]string, len(s))
	for i, st := range s {
		parts[i] = fmt.Sprintf("%d×%d", st.MPS, st.BlockDelta)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Decode unpacks records produced by Encode. Every record must have a
// non-zero block delta.
func Decode(data Encoded) (Schedule, error) {
	if len(data) == 0 || len(data)%RecordSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of %d", ErrMalformedSteps, len(data), RecordSize)
	}

	r := fast.NewReader(data)
	s := make(Schedule, 0, len(data)/RecordSize)
	for !r.Empty() {
		st, err := unpack(r.Read(RecordSize))
		if err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrMalformedSteps, len(s), err)
		}
		if st.BlockDelta == 0 {
			return nil, fmt.Errorf("%w: step %d has zero blocks", ErrMalformedSteps, len(s))
		}
		s = append(s, st)
	}
	return s, nil
}

// Hex returns the 0x-prefixed hex form.
func (e Encoded) Hex() string {
	return hexutil.Encode(e)
}

// ParseHex decodes a hex string, with or without 0x prefix.
func ParseHex(s string) (Encoded, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSteps, err)
	}
	return Encoded(b), nil
}

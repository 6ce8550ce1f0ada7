package bits

// This package implements a fixed-width, big-endian "Bit Packer".
// Values are written most significant bit first, so a sequence of fields reads
// left-to-right in the resulting bytes exactly as a Solidity `bytesN` word would.
//
// Use Case:
// - Packing a 24-bit rate and a 40-bit block count into one 8-byte record.
// - Any field may straddle a byte boundary; the packer keeps a bit cursor.
// - Unused bits of the last byte are always zero.

import (
	"errors"
	"math"
)

var (
	// ErrBadWidth is returned for field widths outside 1..64.
	ErrBadWidth = errors.New("bits: field width must be between 1 and 64")
	// ErrValueOverflow is returned when a value has bits set above the field width.
	ErrValueOverflow = errors.New("bits: value does not fit in field width")
	// ErrUnexpectedEOF is returned when fewer bits remain than requested.
	ErrUnexpectedEOF = errors.New("bits: not enough bits left")
)

type (
	// Array is a container for the underlying byte slice that holds the packed fields.
	Array struct {
		Bytes []byte
	}

	// Writer appends fields to an Array.
	Writer struct {
		*Array
		bitOffset int // 0-7: bits already used in Bytes[last]; 0 means byte aligned
	}

	// Reader consumes fields from an Array in the order they were written.
	Reader struct {
		*Array
		byteOffset int // Index of the current byte in Bytes
		bitOffset  int // 0-7: bits of Bytes[byteOffset] already consumed
	}
)

// NewWriter creates a new packer appending to the given array.
func NewWriter(arr *Array) *Writer {
	return &Writer{
		Array: arr,
	}
}

// NewReader creates a new reader over the given array.
func NewReader(arr *Array) *Reader {
	return &Reader{
		Array: arr,
	}
}

// MaxValue returns the largest unsigned value representable in the given width.
// Example: MaxValue(24) == 16_777_215.
func MaxValue(bits int) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	if bits <= 0 {
		return 0
	}
	return 1<<uint(bits) - 1
}

// Fits reports whether v can be stored in a field of the given width.
func Fits(bits int, v uint64) bool {
	return v <= MaxValue(bits)
}

// lowMask keeps the lowest n bits (n <= 8).
func lowMask(n int) uint64 {
	return 1<<uint(n) - 1
}

// Write appends the lowest 'bits' bits of v, most significant bit first.
// Example: Write(24, 0x123456) then Write(40, 0x789abcdef0) yields 12 34 56 78 9a bc de f0.
func (w *Writer) Write(bits int, v uint64) error {
	if bits < 1 || bits > 64 {
		return ErrBadWidth
	}
	if !Fits(bits, v) {
		return ErrValueOverflow
	}

	for bits > 0 {
		// Start a fresh zero byte when the previous one is full.
		if w.bitOffset == 0 {
			w.Bytes = append(w.Bytes, 0)
		}
		free := 8 - w.bitOffset
		n := bits
		if n > free {
			n = free
		}

		// Take the top n of the remaining bits and place them right after the cursor.
		chunk := (v >> uint(bits-n)) & lowMask(n)
		w.Bytes[len(w.Bytes)-1] |= byte(chunk << uint(free-n))

		w.bitOffset = (w.bitOffset + n) % 8
		bits -= n
	}
	return nil
}

// Read extracts a field of the given width and advances the cursor.
func (r *Reader) Read(bits int) (uint64, error) {
	if bits < 1 || bits > 64 {
		return 0, ErrBadWidth
	}
	if bits > r.NonReadBits() {
		return 0, ErrUnexpectedEOF
	}

	var v uint64
	for bits > 0 {
		free := 8 - r.bitOffset
		n := bits
		if n > free {
			n = free
		}

		b := uint64(r.Bytes[r.byteOffset])
		v = v<<uint(n) | (b>>uint(free-n))&lowMask(n)

		r.bitOffset += n
		if r.bitOffset == 8 {
			r.bitOffset = 0
			r.byteOffset++
		}
		bits -= n
	}
	return v, nil
}

// NonReadBytes returns the number of bytes not yet fully consumed.
func (r *Reader) NonReadBytes() int {
	return len(r.Bytes) - r.byteOffset
}

// NonReadBits returns the total number of unread bits, padding included.
func (r *Reader) NonReadBits() int {
	return r.NonReadBytes()*8 - r.bitOffset
}

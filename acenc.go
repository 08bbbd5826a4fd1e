package yaecl

import (
	"github.com/pkg/errors"

	"github.com/tongdaxu/yaecl/internal/bitbuf"
)

// Interval register layout of the arithmetic coder. The working precision is
// 32 bits; acTop marks the half point of the coding interval and acSecond the
// quarter point.
const (
	acTop    uint32 = 1 << 31
	acSecond uint32 = 1 << 30
)

// ACEncoder is a binary arithmetic encoder after Witten, Neal and Cleary,
// "Arithmetic coding for data compression", CACM 1987. It narrows a
// fixed-precision interval [low, high] per symbol and emits settled bits as
// the interval passes binary midpoints, deferring straddling bits until a
// later bit resolves them.
//
// An encoder is born empty, accepts any number of Encode calls, then exactly
// one Flush. BitStream exposes the finalized bytes.
type ACEncoder struct {
	low     uint32
	high    uint32
	pending uint64
	bw      *bitbuf.Writer
	flushed bool
}

// NewACEncoder returns an encoder with an empty output stream.
func NewACEncoder() *ACEncoder {
	return &ACEncoder{high: ^uint32(0), bw: bitbuf.NewWriter()}
}

// Encode appends one symbol drawn from cdf at the given precision. The
// stream is left untouched on any validation error.
func (enc *ACEncoder) Encode(sym int32, cdf []int32, precision uint8) error {
	if enc.flushed {
		return errors.Wrap(ErrUseAfterFlush, "arithmetic encode")
	}
	if err := validatePrecision(precision); err != nil {
		return err
	}
	if err := validateCDF(cdf, precision); err != nil {
		return err
	}
	if err := checkSymbol(sym, cdf); err != nil {
		return err
	}
	return enc.encode(sym, cdf, precision)
}

// EncodeNx1 appends every symbol of syms against the one shared cdf. All
// symbols are validated before the first one is encoded.
func (enc *ACEncoder) EncodeNx1(syms []int32, cdf []int32, precision uint8) error {
	if enc.flushed {
		return errors.Wrap(ErrUseAfterFlush, "arithmetic encode")
	}
	if err := validatePrecision(precision); err != nil {
		return err
	}
	if err := validateCDF(cdf, precision); err != nil {
		return err
	}
	for i, sym := range syms {
		if err := checkSymbol(sym, cdf); err != nil {
			return errors.Wrapf(err, "symbol index %d", i)
		}
	}
	for _, sym := range syms {
		if err := enc.encode(sym, cdf, precision); err != nil {
			return err
		}
	}
	return nil
}

// EncodeNxN appends every symbol of syms, symbol i drawn from row i of the
// flat CDF matrix cdfs. Rows are k+1 entries wide and stored contiguously.
// All rows and symbols are validated before the first one is encoded.
func (enc *ACEncoder) EncodeNxN(syms []int32, cdfs []int32, k int32, precision uint8) error {
	if enc.flushed {
		return errors.Wrap(ErrUseAfterFlush, "arithmetic encode")
	}
	stride, err := checkMatrix(len(syms), cdfs, k, precision)
	if err != nil {
		return err
	}
	for i, sym := range syms {
		if err := checkSymbol(sym, cdfs[i*stride:(i+1)*stride]); err != nil {
			return errors.Wrapf(err, "symbol index %d", i)
		}
	}
	for i, sym := range syms {
		if err := enc.encode(sym, cdfs[i*stride:(i+1)*stride], precision); err != nil {
			return err
		}
	}
	return nil
}

// Flush settles the pending bits, disambiguates the final interval with one
// more emitted bit, and freezes the stream. Must be called exactly once.
func (enc *ACEncoder) Flush() error {
	if enc.flushed {
		return errors.Wrap(ErrUseAfterFlush, "arithmetic flush")
	}
	enc.pending++
	var bit uint8
	if enc.low >= acSecond {
		bit = 1
	}
	if err := enc.bw.WriteBitWithPending(bit, enc.pending); err != nil {
		return err
	}
	enc.pending = 0
	if err := enc.bw.Close(); err != nil {
		return err
	}
	enc.flushed = true
	return nil
}

// BitStream returns the finalized byte stream, or nil before Flush. The
// length is ceil(bits/8); trailing pad bits are zero.
func (enc *ACEncoder) BitStream() []byte {
	if !enc.flushed {
		return nil
	}
	return enc.bw.Bytes()
}

// encode narrows [low, high] to the slice of the interval that cdf assigns
// to sym, then renormalizes. Inputs are already validated.
func (enc *ACEncoder) encode(sym int32, cdf []int32, precision uint8) error {
	rng := uint64(enc.high-enc.low) + 1
	enc.high = enc.low + uint32(rng*uint64(uint32(cdf[sym+1]))>>precision) - 1
	enc.low = enc.low + uint32(rng*uint64(uint32(cdf[sym]))>>precision)
	for {
		switch {
		case enc.high < acTop:
			// Settled in the lower half.
			if err := enc.bw.WriteBitWithPending(0, enc.pending); err != nil {
				return err
			}
			enc.pending = 0
		case enc.low >= acTop:
			// Settled in the upper half.
			if err := enc.bw.WriteBitWithPending(1, enc.pending); err != nil {
				return err
			}
			enc.pending = 0
			enc.low -= acTop
			enc.high -= acTop
		case enc.low >= acSecond && enc.high < acTop+acSecond:
			// Straddles the midpoint; defer until a half settles.
			enc.pending++
			enc.low -= acSecond
			enc.high -= acSecond
		default:
			return nil
		}
		enc.low <<= 1
		enc.high = enc.high<<1 | 1
	}
}

// checkMatrix validates the shape and contents of a flat CDF matrix of rows
// rows with k+1 columns, returning the row stride.
func checkMatrix(rows int, cdfs []int32, k int32, precision uint8) (stride int, err error) {
	if err := validatePrecision(precision); err != nil {
		return 0, err
	}
	if k < 1 {
		return 0, errors.Wrapf(ErrInvalidCDF, "alphabet of %d symbols", k)
	}
	stride = int(k) + 1
	if len(cdfs) != rows*stride {
		return 0, errors.Wrapf(ErrLengthMismatch, "CDF matrix holds %d entries, want %d rows of %d", len(cdfs), rows, stride)
	}
	for i := 0; i < rows; i++ {
		if err := validateCDF(cdfs[i*stride:(i+1)*stride], precision); err != nil {
			return 0, errors.Wrapf(err, "CDF row %d", i)
		}
	}
	return stride, nil
}

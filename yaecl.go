/*
Links:
	https://dl.acm.org/doi/10.1145/214762.214771
	https://arxiv.org/abs/0902.0271
	https://github.com/rygorous/ryg_rans
*/

// Package yaecl provides entropy coding for data compression pipelines: a
// binary arithmetic coder in the Witten-Neal-Cleary style and a range-coded
// Asymmetric Numeral Systems (rANS) coder.
//
// Both codecs compress a sequence of discrete symbols against caller-supplied
// cumulative distribution functions into a compact byte stream, and recover
// the original symbols exactly. The caller owns all modeling: a CDF is an
// int32 slice cdf[0..K] with cdf[0] == 0, cdf[K] == 1<<precision, monotone
// non-decreasing, quantized to an integer precision of 1 to 16 bits.
//
// The arithmetic coder decodes in encode order; the rANS coder is a stack
// and decodes in reverse. Batch variants amortize call overhead over many
// symbols sharing one CDF (Nx1) or carrying one CDF each (NxN).
package yaecl

import "github.com/pkg/errors"

// PrecisionMax is the highest supported CDF precision in bits.
const PrecisionMax = 16

// Error kinds reported by the codecs. Call sites wrap them with context;
// match with errors.Is.
var (
	// ErrInvalidPrecision reports a precision outside [1, PrecisionMax].
	ErrInvalidPrecision = errors.New("yaecl: precision out of range [1, 16]")
	// ErrInvalidCDF reports a CDF violating its invariants: first entry not
	// zero, last entry not 1<<precision, non-monotone, or a row shape that
	// disagrees with the stated alphabet size.
	ErrInvalidCDF = errors.New("yaecl: invalid CDF")
	// ErrInvalidSymbol reports a symbol outside [0, K) or one mapped to a
	// zero-probability range of its CDF.
	ErrInvalidSymbol = errors.New("yaecl: invalid symbol")
	// ErrUseAfterFlush reports an encode or a second flush on a codec whose
	// stream has been finalized.
	ErrUseAfterFlush = errors.New("yaecl: codec already flushed")
	// ErrStreamCorrupt reports a truncated or mismatched rANS stream.
	ErrStreamCorrupt = errors.New("yaecl: corrupt stream")
	// ErrLengthMismatch reports batch arrays whose lengths disagree.
	ErrLengthMismatch = errors.New("yaecl: array lengths disagree")
)

package yaecl

import (
	"github.com/tongdaxu/yaecl/internal/bitbuf"
)

// ACDecoder mirrors ACEncoder over a finalized stream. It tracks the same
// [low, high] interval plus a 32-bit sliding window of stream bits, and
// recovers each symbol by locating the window inside the caller's CDF.
//
// A decoder accepts exactly as many Decode calls as were encoded, in encode
// order; the caller knows the symbol count. Reading past the encoded length
// is deterministic but meaningless.
type ACDecoder struct {
	low    uint32
	high   uint32
	value  uint32
	br     *bitbuf.Reader
	primed bool
}

// NewACDecoder returns a decoder over a finalized byte stream. The decoder
// reads stream for its lifetime without copying it.
func NewACDecoder(stream []byte) *ACDecoder {
	return &ACDecoder{high: ^uint32(0), br: bitbuf.NewReader(stream)}
}

// Decode recovers the next symbol of an alphabet of k symbols drawn from cdf
// at the given precision.
func (dec *ACDecoder) Decode(k int32, cdf []int32, precision uint8) (int32, error) {
	if err := validatePrecision(precision); err != nil {
		return 0, err
	}
	if err := checkAlphabet(k, cdf); err != nil {
		return 0, err
	}
	if err := validateCDF(cdf, precision); err != nil {
		return 0, err
	}
	return dec.decode(cdf, precision), nil
}

// DecodeNx1 recovers len(out) symbols against the one shared cdf, storing
// them into out in decode order.
func (dec *ACDecoder) DecodeNx1(k int32, cdf []int32, precision uint8, out []int32) error {
	if err := validatePrecision(precision); err != nil {
		return err
	}
	if err := checkAlphabet(k, cdf); err != nil {
		return err
	}
	if err := validateCDF(cdf, precision); err != nil {
		return err
	}
	for i := range out {
		out[i] = dec.decode(cdf, precision)
	}
	return nil
}

// DecodeNxN recovers len(out) symbols, symbol i against row i of the flat
// CDF matrix cdfs. Rows are k+1 entries wide and stored contiguously.
func (dec *ACDecoder) DecodeNxN(k int32, cdfs []int32, precision uint8, out []int32) error {
	stride, err := checkMatrix(len(out), cdfs, k, precision)
	if err != nil {
		return err
	}
	for i := range out {
		out[i] = dec.decode(cdfs[i*stride:(i+1)*stride], precision)
	}
	return nil
}

// decode recovers one symbol and renormalizes, shifting fresh stream bits
// into the value window where the encoder emitted them. Inputs are already
// validated.
func (dec *ACDecoder) decode(cdf []int32, precision uint8) int32 {
	if !dec.primed {
		// Seed the window with the first 32 stream bits, zero-filled past
		// the end for very short streams.
		for i := 0; i < 32; i++ {
			dec.value = dec.value<<1 | uint32(dec.br.ReadBit())
		}
		dec.primed = true
	}
	rng := uint64(dec.high-dec.low) + 1
	scaled := uint32(((uint64(dec.value-dec.low)+1)<<precision - 1) / rng)
	sym := searchCDF(cdf, scaled)
	dec.high = dec.low + uint32(rng*uint64(uint32(cdf[sym+1]))>>precision) - 1
	dec.low = dec.low + uint32(rng*uint64(uint32(cdf[sym]))>>precision)
	for {
		switch {
		case dec.high < acTop:
			// Settled in the lower half.
		case dec.low >= acTop:
			// Settled in the upper half.
			dec.low -= acTop
			dec.high -= acTop
			dec.value -= acTop
		case dec.low >= acSecond && dec.high < acTop+acSecond:
			// Straddles the midpoint.
			dec.low -= acSecond
			dec.high -= acSecond
			dec.value -= acSecond
		default:
			return sym
		}
		dec.low <<= 1
		dec.high = dec.high<<1 | 1
		dec.value = dec.value<<1 | uint32(dec.br.ReadBit())
	}
}

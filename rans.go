package yaecl

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// ransL is the lower bound of the normalized rANS state. The state register
// lives in [ransL, ransL<<16) and sheds or reloads 16-bit words to stay
// there.
const ransL uint32 = 1 << 16

// RANSCodec is a range-coded Asymmetric Numeral Systems coder after Duda,
// "Asymmetric numeral systems", with a 16-bit renormalization base. A single
// 32-bit state register carries the whole symbol history; Encode pushes onto
// it and Decode pops, so symbols come back in reverse order.
//
// A codec built by NewRANSCodec is open: Encode and Decode may interleave
// freely, with each Decode returning the most recently encoded symbol.
// Flush freezes the stream for transport; the frozen bytes reconstruct the
// state through NewRANSDecoder, which yields a closed codec that only
// decodes.
type RANSCodec struct {
	x      uint32
	words  []byte // 16-bit renormalization words, big-endian, most recent last
	stream []byte
	closed bool
}

// NewRANSCodec returns an open codec with an empty stream.
func NewRANSCodec() *RANSCodec {
	return &RANSCodec{x: ransL}
}

// NewRANSDecoder returns a closed codec seeded from a finalized stream: the
// trailing four bytes reload the state register and the remaining bytes are
// popped as 16-bit words while decoding.
func NewRANSDecoder(stream []byte) (*RANSCodec, error) {
	if len(stream) < 4 {
		return nil, errors.Wrapf(ErrStreamCorrupt, "stream holds %d bytes, final state needs 4", len(stream))
	}
	body := len(stream) - 4
	if body%2 != 0 {
		return nil, errors.Wrapf(ErrStreamCorrupt, "renormalization payload of %d bytes is not whole 16-bit words", body)
	}
	c := &RANSCodec{
		x:      binary.BigEndian.Uint32(stream[body:]),
		words:  append([]byte(nil), stream[:body]...),
		stream: stream,
		closed: true,
	}
	return c, nil
}

// Encode pushes one symbol drawn from cdf at the given precision. The state
// is left untouched on any validation error.
func (c *RANSCodec) Encode(sym int32, cdf []int32, precision uint8) error {
	if c.closed {
		return errors.Wrap(ErrUseAfterFlush, "rANS encode")
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
	c.encode(sym, cdf, precision)
	return nil
}

// EncodeNx1 pushes every symbol of syms against the one shared cdf. All
// symbols are validated before the first one is pushed.
func (c *RANSCodec) EncodeNx1(syms []int32, cdf []int32, precision uint8) error {
	if c.closed {
		return errors.Wrap(ErrUseAfterFlush, "rANS encode")
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
		c.encode(sym, cdf, precision)
	}
	return nil
}

// EncodeNxN pushes every symbol of syms, symbol i drawn from row i of the
// flat CDF matrix cdfs. Rows are k+1 entries wide and stored contiguously.
func (c *RANSCodec) EncodeNxN(syms []int32, cdfs []int32, k int32, precision uint8) error {
	if c.closed {
		return errors.Wrap(ErrUseAfterFlush, "rANS encode")
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
		c.encode(sym, cdfs[i*stride:(i+1)*stride], precision)
	}
	return nil
}

// Decode pops the most recently pushed symbol of an alphabet of k symbols
// drawn from cdf at the given precision.
func (c *RANSCodec) Decode(k int32, cdf []int32, precision uint8) (int32, error) {
	if err := validatePrecision(precision); err != nil {
		return 0, err
	}
	if err := checkAlphabet(k, cdf); err != nil {
		return 0, err
	}
	if err := validateCDF(cdf, precision); err != nil {
		return 0, err
	}
	return c.decode(cdf, precision)
}

// DecodeNx1 pops len(out) symbols against the one shared cdf, storing them
// into out in pop order, the reverse of encode order.
func (c *RANSCodec) DecodeNx1(k int32, cdf []int32, precision uint8, out []int32) error {
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
		sym, err := c.decode(cdf, precision)
		if err != nil {
			return errors.Wrapf(err, "symbol index %d", i)
		}
		out[i] = sym
	}
	return nil
}

// DecodeNxN pops len(out) symbols, symbol i against row i of the flat CDF
// matrix cdfs. Rows are k+1 entries wide and stored contiguously.
func (c *RANSCodec) DecodeNxN(k int32, cdfs []int32, precision uint8, out []int32) error {
	stride, err := checkMatrix(len(out), cdfs, k, precision)
	if err != nil {
		return err
	}
	for i := range out {
		sym, err := c.decode(cdfs[i*stride:(i+1)*stride], precision)
		if err != nil {
			return errors.Wrapf(err, "symbol index %d", i)
		}
		out[i] = sym
	}
	return nil
}

// Flush appends the final state register, big-endian, after the
// renormalization words and closes the codec. Must be called exactly once;
// afterwards Encode and Flush report ErrUseAfterFlush, while Decode still
// pops from the codec's own state. BitStream returns the frozen bytes, which
// NewRANSDecoder turns back into a decoder.
func (c *RANSCodec) Flush() error {
	if c.closed {
		return errors.Wrap(ErrUseAfterFlush, "rANS flush")
	}
	c.stream = make([]byte, len(c.words)+4)
	copy(c.stream, c.words)
	binary.BigEndian.PutUint32(c.stream[len(c.words):], c.x)
	c.closed = true
	return nil
}

// BitStream returns the finalized byte stream, or nil before Flush.
func (c *RANSCodec) BitStream() []byte {
	return c.stream
}

// encode renormalizes the state down until the coming update cannot
// overflow, shedding 16-bit words, then folds sym in. Inputs are already
// validated.
func (c *RANSCodec) encode(sym int32, cdf []int32, precision uint8) {
	freq := uint32(cdf[sym+1] - cdf[sym])
	cum := uint32(cdf[sym])
	max := (uint64(ransL) >> precision << 16) * uint64(freq)
	for uint64(c.x) >= max {
		c.words = append(c.words, byte(c.x>>8), byte(c.x))
		c.x >>= 16
	}
	c.x = c.x/freq<<precision + c.x%freq + cum
}

// decode pops one symbol off the state, reloading 16-bit words until the
// state is normalized again. An underflow with no words left means the
// stream was truncated or decoded against the wrong CDFs.
func (c *RANSCodec) decode(cdf []int32, precision uint8) (int32, error) {
	slot := c.x & (1<<precision - 1)
	sym := searchCDF(cdf, slot)
	freq := uint32(cdf[sym+1] - cdf[sym])
	cum := uint32(cdf[sym])
	c.x = freq*(c.x>>precision) + slot - cum
	for c.x < ransL {
		if len(c.words) < 2 {
			return 0, errors.Wrap(ErrStreamCorrupt, "state underflow with no renormalization words left")
		}
		n := len(c.words)
		c.x = c.x<<16 | uint32(c.words[n-2])<<8 | uint32(c.words[n-1])
		c.words = c.words[:n-2]
	}
	return sym, nil
}

package yaecl_test

import (
	"bytes"
	"testing"

	"github.com/icza/mighty"
	"github.com/pkg/errors"
	"github.com/tongdaxu/yaecl"
)

// cdf5 is a five-symbol near-equiprobable CDF at precision 16.
var cdf5 = []int32{0, 13107, 26214, 39321, 52428, 65536}

// mod5Symbols returns [0, 1, 2, 3, 4, 0, 1, ...] of length n.
func mod5Symbols(n int) []int32 {
	syms := make([]int32, n)
	for i := range syms {
		syms[i] = int32(i % 5)
	}
	return syms
}

func TestACRoundTrip(t *testing.T) {
	eq := mighty.Eq(t)
	enc := yaecl.NewACEncoder()
	for _, sym := range []int32{0, 1, 2, 3, 4} {
		if err := enc.Encode(sym, cdf5, 16); err != nil {
			t.Fatalf("error encoding symbol %d: %v", sym, err)
		}
	}
	eq(true, enc.BitStream() == nil)
	if err := enc.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}

	dec := yaecl.NewACDecoder(enc.BitStream())
	for _, want := range []int32{0, 1, 2, 3, 4} {
		got, err := dec.Decode(5, cdf5, 16)
		if err != nil {
			t.Fatalf("error decoding symbol: %v", err)
		}
		eq(want, got)
	}
}

func TestACRoundTripNx1(t *testing.T) {
	const n = 1 << 15
	syms := mod5Symbols(n)
	enc := yaecl.NewACEncoder()
	if err := enc.EncodeNx1(syms, cdf5, 16); err != nil {
		t.Fatalf("error encoding symbols: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}

	dec := yaecl.NewACDecoder(enc.BitStream())
	out := make([]int32, n)
	if err := dec.DecodeNx1(5, cdf5, 16, out); err != nil {
		t.Fatalf("error decoding symbols: %v", err)
	}
	for i := range syms {
		if syms[i] != out[i] {
			t.Fatalf("symbol %d mismatch; expected %d, got %d", i, syms[i], out[i])
		}
	}
}

// TestACNxNMatchesNx1 checks that encoding through the per-symbol CDF matrix
// path, with every row equal, produces a bit-identical stream to the shared
// CDF path.
func TestACNxNMatchesNx1(t *testing.T) {
	const n = 1 << 12
	syms := mod5Symbols(n)
	cdfs := make([]int32, 0, n*len(cdf5))
	for i := 0; i < n; i++ {
		cdfs = append(cdfs, cdf5...)
	}

	enc1 := yaecl.NewACEncoder()
	if err := enc1.EncodeNx1(syms, cdf5, 16); err != nil {
		t.Fatalf("error encoding shared CDF: %v", err)
	}
	if err := enc1.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}
	encN := yaecl.NewACEncoder()
	if err := encN.EncodeNxN(syms, cdfs, 5, 16); err != nil {
		t.Fatalf("error encoding CDF matrix: %v", err)
	}
	if err := encN.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}
	if !bytes.Equal(enc1.BitStream(), encN.BitStream()) {
		t.Fatalf("stream mismatch between Nx1 and NxN encodings")
	}

	dec := yaecl.NewACDecoder(encN.BitStream())
	out := make([]int32, n)
	if err := dec.DecodeNxN(5, cdfs, 16, out); err != nil {
		t.Fatalf("error decoding CDF matrix: %v", err)
	}
	for i := range syms {
		if syms[i] != out[i] {
			t.Fatalf("symbol %d mismatch; expected %d, got %d", i, syms[i], out[i])
		}
	}
}

// TestACDeterminism checks that independent encoders given identical inputs
// produce identical byte streams.
func TestACDeterminism(t *testing.T) {
	syms := mod5Symbols(4096)
	streams := make([][]byte, 2)
	for i := range streams {
		enc := yaecl.NewACEncoder()
		if err := enc.EncodeNx1(syms, cdf5, 16); err != nil {
			t.Fatalf("error encoding symbols: %v", err)
		}
		if err := enc.Flush(); err != nil {
			t.Fatalf("error flushing encoder: %v", err)
		}
		streams[i] = enc.BitStream()
	}
	if !bytes.Equal(streams[0], streams[1]) {
		t.Fatalf("stream mismatch between identical encoders")
	}
}

// TestACSingleSymbolAlphabet checks the K=1 boundary: a degenerate alphabet
// encodes to near-zero bits and still round-trips.
func TestACSingleSymbolAlphabet(t *testing.T) {
	cdf := []int32{0, 1 << 16}
	enc := yaecl.NewACEncoder()
	for i := 0; i < 1000; i++ {
		if err := enc.Encode(0, cdf, 16); err != nil {
			t.Fatalf("error encoding symbol: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}
	if n := len(enc.BitStream()); n > 8 {
		t.Errorf("degenerate alphabet stream too long: %d bytes", n)
	}
	dec := yaecl.NewACDecoder(enc.BitStream())
	for i := 0; i < 1000; i++ {
		got, err := dec.Decode(1, cdf, 16)
		if err != nil {
			t.Fatalf("error decoding symbol: %v", err)
		}
		if got != 0 {
			t.Fatalf("symbol %d mismatch; expected 0, got %d", i, got)
		}
	}
}

// TestACMaxAlphabet checks the maximum alphabet at maximum precision: 2^16
// symbols of unit frequency, exercising the binary search path.
func TestACMaxAlphabet(t *testing.T) {
	const k = 1 << 16
	cdf := make([]int32, k+1)
	for i := range cdf {
		cdf[i] = int32(i)
	}
	syms := []int32{0, 1, 12345, 65534, 65535}
	enc := yaecl.NewACEncoder()
	if err := enc.EncodeNx1(syms, cdf, 16); err != nil {
		t.Fatalf("error encoding symbols: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}
	dec := yaecl.NewACDecoder(enc.BitStream())
	out := make([]int32, len(syms))
	if err := dec.DecodeNx1(k, cdf, 16, out); err != nil {
		t.Fatalf("error decoding symbols: %v", err)
	}
	for i := range syms {
		if syms[i] != out[i] {
			t.Fatalf("symbol %d mismatch; expected %d, got %d", i, syms[i], out[i])
		}
	}
}

// TestACEmpty checks that flushing a fresh encoder produces a short but
// valid stream.
func TestACEmpty(t *testing.T) {
	enc := yaecl.NewACEncoder()
	if err := enc.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}
	stream := enc.BitStream()
	if len(stream) == 0 {
		t.Fatalf("empty stream after flush")
	}
	// A decoder over it accepts zero decode calls.
	_ = yaecl.NewACDecoder(stream)
}

func TestACRepeatedSymbol(t *testing.T) {
	// A heavily skewed CDF over a run of the dominant symbol compresses far
	// below one bit per symbol.
	cdf := []int32{0, 65520, 65536}
	const n = 1 << 14
	syms := make([]int32, n)
	enc := yaecl.NewACEncoder()
	if err := enc.EncodeNx1(syms, cdf, 16); err != nil {
		t.Fatalf("error encoding symbols: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}
	if got := len(enc.BitStream()); got > n/8 {
		t.Errorf("skewed run compressed poorly: %d bytes for %d symbols", got, n)
	}
	dec := yaecl.NewACDecoder(enc.BitStream())
	out := make([]int32, n)
	if err := dec.DecodeNx1(2, cdf, 16, out); err != nil {
		t.Fatalf("error decoding symbols: %v", err)
	}
	for i := range out {
		if out[i] != 0 {
			t.Fatalf("symbol %d mismatch; expected 0, got %d", i, out[i])
		}
	}
}

func TestACErrors(t *testing.T) {
	eq := mighty.Eq(t)

	// Zero-probability symbol.
	zeroCDF := []int32{0, 0, 26214, 39321, 52428, 65536}
	enc := yaecl.NewACEncoder()
	err := enc.Encode(0, zeroCDF, 16)
	eq(true, errors.Is(err, yaecl.ErrInvalidSymbol))

	// Symbol out of range.
	err = enc.Encode(5, cdf5, 16)
	eq(true, errors.Is(err, yaecl.ErrInvalidSymbol))
	err = enc.Encode(-1, cdf5, 16)
	eq(true, errors.Is(err, yaecl.ErrInvalidSymbol))

	// Precision out of range.
	err = enc.Encode(0, cdf5, 0)
	eq(true, errors.Is(err, yaecl.ErrInvalidPrecision))
	err = enc.Encode(0, cdf5, 17)
	eq(true, errors.Is(err, yaecl.ErrInvalidPrecision))

	// CDF whose total disagrees with the precision.
	err = enc.Encode(0, cdf5, 15)
	eq(true, errors.Is(err, yaecl.ErrInvalidCDF))

	// Non-monotone CDF.
	err = enc.Encode(0, []int32{0, 40000, 30000, 65536}, 16)
	eq(true, errors.Is(err, yaecl.ErrInvalidCDF))

	// Matrix shape mismatch.
	err = enc.EncodeNxN([]int32{0, 1}, cdf5, 5, 16)
	eq(true, errors.Is(err, yaecl.ErrLengthMismatch))

	// The failed calls must not have disturbed the stream: it still decodes
	// to exactly what was validly encoded.
	if err := enc.Encode(3, cdf5, 16); err != nil {
		t.Fatalf("error encoding symbol: %v", err)
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("error flushing encoder: %v", err)
	}
	dec := yaecl.NewACDecoder(enc.BitStream())
	got, err := dec.Decode(5, cdf5, 16)
	if err != nil {
		t.Fatalf("error decoding symbol: %v", err)
	}
	eq(int32(3), got)

	// Use after flush.
	err = enc.Encode(0, cdf5, 16)
	eq(true, errors.Is(err, yaecl.ErrUseAfterFlush))
	err = enc.Flush()
	eq(true, errors.Is(err, yaecl.ErrUseAfterFlush))

	// Decoder-side validation.
	dec = yaecl.NewACDecoder([]byte{0x40})
	_, err = dec.Decode(4, cdf5, 16)
	eq(true, errors.Is(err, yaecl.ErrInvalidCDF))
	_, err = dec.Decode(5, cdf5, 12)
	eq(true, errors.Is(err, yaecl.ErrInvalidCDF))
	_, err = dec.Decode(5, cdf5, 20)
	eq(true, errors.Is(err, yaecl.ErrInvalidPrecision))
}

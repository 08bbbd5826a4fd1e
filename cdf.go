package yaecl

import "github.com/pkg/errors"

// validatePrecision checks that precision lies in [1, PrecisionMax].
func validatePrecision(precision uint8) error {
	if precision < 1 || precision > PrecisionMax {
		return errors.Wrapf(ErrInvalidPrecision, "precision %d", precision)
	}
	return nil
}

// validateCDF checks the invariants of a single CDF row at the given
// precision: at least one symbol, cdf[0] == 0, cdf[K] == 1<<precision and
// monotone non-decreasing entries.
func validateCDF(cdf []int32, precision uint8) error {
	if len(cdf) < 2 {
		return errors.Wrapf(ErrInvalidCDF, "CDF holds %d entries, need at least 2", len(cdf))
	}
	if cdf[0] != 0 {
		return errors.Wrapf(ErrInvalidCDF, "first entry is %d, want 0", cdf[0])
	}
	total := int32(1) << precision
	if last := cdf[len(cdf)-1]; last != total {
		return errors.Wrapf(ErrInvalidCDF, "last entry is %d, want %d", last, total)
	}
	for i := 0; i+1 < len(cdf); i++ {
		if cdf[i] > cdf[i+1] {
			return errors.Wrapf(ErrInvalidCDF, "entries %d and %d are not monotone", i, i+1)
		}
	}
	return nil
}

// checkAlphabet checks that the CDF row shape matches an alphabet of k
// symbols.
func checkAlphabet(k int32, cdf []int32) error {
	if k < 1 || len(cdf) != int(k)+1 {
		return errors.Wrapf(ErrInvalidCDF, "CDF holds %d entries for alphabet of %d symbols, want %d", len(cdf), k, k+1)
	}
	return nil
}

// checkSymbol checks that sym addresses a non-empty range of cdf.
func checkSymbol(sym int32, cdf []int32) error {
	k := int32(len(cdf) - 1)
	if sym < 0 || sym >= k {
		return errors.Wrapf(ErrInvalidSymbol, "symbol %d outside [0, %d)", sym, k)
	}
	if cdf[sym] == cdf[sym+1] {
		return errors.Wrapf(ErrInvalidSymbol, "symbol %d has zero probability", sym)
	}
	return nil
}

// searchLinearMax bounds the alphabet size up to which symbol recovery scans
// the CDF linearly; larger alphabets binary search. Both obey the same tie
// rule, cdf[s] <= target < cdf[s+1], so the choice never changes output bits.
const searchLinearMax = 32

// searchCDF returns the symbol s with cdf[s] <= target < cdf[s+1]. The
// caller guarantees target < cdf[len(cdf)-1].
func searchCDF(cdf []int32, target uint32) int32 {
	k := len(cdf) - 1
	if k <= searchLinearMax {
		s := 0
		for uint32(cdf[s+1]) <= target {
			s++
		}
		return int32(s)
	}
	// Largest s with cdf[s] <= target.
	lo, hi := 0, k
	for hi-lo > 1 {
		mid := int(uint(lo+hi) >> 1)
		if uint32(cdf[mid]) <= target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return int32(lo)
}

// BuildCDF quantizes an integer histogram to a CDF at the given precision.
// Every symbol with a nonzero count keeps a nonzero quantized frequency, so
// any value occurring in the source data stays encodable. Returns
// ErrInvalidCDF when the histogram carries no mass, a negative count, or
// more occurring symbols than 1<<precision can hold.
func BuildCDF(hist []int64, precision uint8) ([]int32, error) {
	if err := validatePrecision(precision); err != nil {
		return nil, err
	}
	if len(hist) == 0 {
		return nil, errors.Wrap(ErrInvalidCDF, "empty histogram")
	}
	var total int64
	for i, h := range hist {
		if h < 0 {
			return nil, errors.Wrapf(ErrInvalidCDF, "negative count %d at symbol %d", h, i)
		}
		total += h
	}
	if total == 0 {
		return nil, errors.Wrap(ErrInvalidCDF, "histogram carries no mass")
	}

	target := int64(1) << precision
	freqs := make([]int64, len(hist))
	var used int64
	argmax := -1
	for i, h := range hist {
		if h == 0 {
			continue
		}
		f := h * target / total
		if f == 0 {
			f = 1
		}
		freqs[i] = f
		used += f
		if argmax < 0 || f > freqs[argmax] {
			argmax = i
		}
	}
	// Settle rounding drift on the heaviest symbol.
	if freqs[argmax]+target-used < 1 {
		return nil, errors.Wrapf(ErrInvalidCDF, "histogram of %d symbols cannot be quantized at precision %d", len(hist), precision)
	}
	freqs[argmax] += target - used

	cdf := make([]int32, len(hist)+1)
	var sum int64
	for i, f := range freqs {
		sum += f
		cdf[i+1] = int32(sum)
	}
	return cdf, nil
}

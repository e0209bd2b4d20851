// Package buf contains overflow-safe range helpers shared by the heap
// providers and the block decoder.
package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// CheckRange validates that [off, off+n) lies inside [lo, hi). Returns the
// end offset if valid, or an error describing the specific failure.
//
//	end, err := buf.CheckRange(lo, hi, bp, size)
//	if err != nil {
//	    return fmt.Errorf("block: %w", err)
//	}
func CheckRange(lo, hi, off, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("negative length: %d", n)
	}
	if off < lo {
		return 0, fmt.Errorf("offset %d below %d", off, lo)
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok {
		return 0, fmt.Errorf("overflow: off=%d + n=%d", off, n)
	}
	if end > hi {
		return 0, fmt.Errorf("range [%d, %d) exceeds %d", off, end, hi)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

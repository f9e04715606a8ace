// Package buf contains overflow-safe offset arithmetic for byte regions.
package buf

import "math"

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

// Within reports whether the range [off, off+n) lies inside [0, limit).
// Negative inputs and overflowing sums are rejected.
func Within(off, n, limit int) bool {
	if off < 0 || n < 0 || limit < 0 {
		return false
	}
	end, ok := AddOverflowSafe(off, n)
	return ok && end <= limit
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if !Within(off, n, len(b)) {
		return nil, false
	}
	return b[off : off+n : off+n], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	return Within(off, n, len(b))
}

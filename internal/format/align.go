package format

// AlignUp rounds n up to the next multiple of align. align must be a power of
// two; an align of 0 or 1 returns n unchanged.
//
// Example:
//
//	AlignUp(1, 8)  = 8
//	AlignUp(8, 8)  = 8
//	AlignUp(9, 8)  = 16
//	AlignUp(13, 1) = 13
func AlignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	mask := align - 1
	return (n + mask) &^ mask
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

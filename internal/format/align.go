package format

import "golang.org/x/exp/constraints"

// AlignUp returns n rounded up to the next multiple of a, which must be a
// power of two.
//
// Example:
//
//	AlignUp(1, 16)  = 16
//	AlignUp(16, 16) = 16
//	AlignUp(17, 16) = 32
func AlignUp[T constraints.Integer](n, a T) T {
	return (n + a - 1) &^ (a - 1)
}

// Align16 returns n aligned up to the next 16-byte boundary.
func Align16(n int) int {
	return (n + AlignmentMask) &^ AlignmentMask
}

// IsAligned reports whether n is a multiple of Alignment.
func IsAligned(n int) bool {
	return n&AlignmentMask == 0
}

// AdjustedSize returns the block size needed to serve a request for n
// payload bytes: header and footer overhead plus rounding, never less than
// MinBlockSize.
//
// Example:
//
//	AdjustedSize(1)  = 32
//	AdjustedSize(16) = 32
//	AdjustedSize(17) = 48
//	AdjustedSize(32) = 48
func AdjustedSize(n int) int {
	if n <= DWordSize {
		return MinBlockSize
	}
	return Align16(n + Overhead)
}

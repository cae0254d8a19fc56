// Package safeconv converts between tree-sitter's unsigned offsets and Go
// slice indices, panicking where a conversion could silently wrap.
package safeconv

import "math"

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// MustUintToInt converts uint to int, panics on overflow.
// Use only for byte offsets into an in-memory buffer.
func MustUintToInt(v uint) int {
	if v > uint(MaxInt) {
		panic("safeconv: uint to int overflow")
	}

	return int(v)
}

// MustIntToUint64 converts a length or size to uint64, panics if negative.
func MustIntToUint64(v int) uint64 {
	if v < 0 {
		panic("safeconv: negative int to uint64 conversion")
	}

	return uint64(v)
}

// MustInt64ToUint64 converts a file size to uint64, panics if negative.
func MustInt64ToUint64(v int64) uint64 {
	if v < 0 {
		panic("safeconv: negative int64 to uint64 conversion")
	}

	return uint64(v)
}

// MustUint64ToInt64 converts a size limit to int64, panics on overflow.
func MustUint64ToInt64(v uint64) int64 {
	if v > uint64(math.MaxInt64) {
		panic("safeconv: uint64 to int64 overflow")
	}

	return int64(v)
}

// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-2 helpers used to size analysis
frames and to select the radix-2 transform path.

All functions are allocation free and constant time, so they are safe to
call from the worker's per-frame hot path.

Usage:

	// Reject frame sizes the radix-2 transform cannot handle.
	if !bitint.IsPowerOfTwo(cfg.Analysis.FFTSamples) { ... }

	// Stage count for an n-point butterfly network.
	stages := bitint.Log2(n)
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Zero and negative
// sizes return 1.
//
// The subtraction (size-1) keeps exact powers of 2 unchanged:
// bits.Len(7) = 3 and 1<<3 = 8, whereas bits.Len(8) = 4 would double it.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2. Powers of 2 have exactly one
// bit set, so n&(n-1) clears it and leaves zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns the base-2 logarithm of a power of two, which is the number
// of butterfly stages of an n-point radix-2 transform. The result for any
// other n is the floor of log2(n); n <= 0 returns 0.
func Log2(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.Len(uint(n)) - 1
}

// ReverseBits reverses the lowest width bits of i. It is the index
// permutation applied before an in-place decimation-in-time transform.
func ReverseBits(i, width int) int {
	if width <= 0 {
		return 0
	}
	return int(bits.Reverse(uint(i)) >> (bits.UintSize - width))
}

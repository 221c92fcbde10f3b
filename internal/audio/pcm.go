// SPDX-License-Identifier: MIT
package audio

import "encoding/binary"

// DecodePCM16 converts little-endian signed 16-bit PCM to samples in
// [-1, 1). A trailing odd byte is ignored.
func DecodePCM16(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(v) / 32768
	}
	return out
}

// intToFloat scales a signed integer sample of the given bit depth to
// [-1, 1).
func intToFloat(v, bitDepth int) float32 {
	return float32(float64(v) / float64(int64(1)<<(bitDepth-1)))
}

// floatToInt is the inverse of intToFloat, clipping out-of-range input.
func floatToInt(v float32, bitDepth int) int {
	full := float64(int64(1) << (bitDepth - 1))
	s := float64(v) * full
	switch {
	case s >= full:
		return int(full - 1)
	case s < -full:
		return int(-full)
	default:
		return int(s)
	}
}

// Downmix averages interleaved frames of the given channel count into dst
// and returns the number of mono samples written.
func Downmix(dst, interleaved []float32, channels int) int {
	if channels <= 1 {
		return copy(dst, interleaved)
	}
	n := min(len(dst), len(interleaved)/channels)
	scale := 1 / float32(channels)
	for i := range n {
		var sum float32
		for _, s := range interleaved[i*channels : (i+1)*channels] {
			sum += s
		}
		dst[i] = sum * scale
	}
	return n
}

// SPDX-License-Identifier: MIT
/*
Package dsp implements the elementary array operations behind the vowel
analysis pipeline: loudness, normalisation, windowing, spectral gating,
cepstral liftering and the forward/inverse Fourier transform.

Every function works in place on a []float64 frame and never fails. The
only degenerate inputs (empty frames, zero dynamic range) are guarded
explicitly; everything else always produces a value, possibly NaN or Inf
when the caller feeds silence into Level.
*/
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// gateFloor replaces a zero frame minimum so that the following log-power
// conversion stays finite.
const gateFloor = 1e-6

// Level returns the RMS amplitude of x on a decibel scale, 20*log10(rms).
// Silence yields -Inf and an empty frame NaN; callers reject short frames
// before getting here.
func Level(x []float64) float64 {
	rms := math.Sqrt(floats.Dot(x, x) / float64(len(x)))
	return 20 * math.Log10(rms)
}

// Normalize rescales x in place so its minimum maps to 0 and maximum to 1.
// A frame with zero range is left untouched.
func Normalize(x []float64) {
	if len(x) == 0 {
		return
	}
	lo, hi := floats.Min(x), floats.Max(x)
	diff := hi - lo
	if diff == 0 {
		return
	}
	// Divide rather than scale by 1/diff so the maximum maps to exactly 1.
	for i, v := range x {
		x[i] = (v - lo) / diff
	}
}

// Smooth averages cur with prev bin by bin, storing the result in cur.
// Both frames must have the same length.
func Smooth(cur, prev []float64) {
	floats.Add(cur, prev)
	floats.Scale(0.5, cur)
}

// Window applies a Hamming window to x in place and forces the first and
// last samples to zero.
func Window(x []float64) {
	n := len(x)
	if n <= 2 {
		for i := range x {
			x[i] = 0
		}
		return
	}
	window.Hamming(x)
	x[0] = 0
	x[n-1] = 0
}

// Gate floors every bin whose index lies outside [low, high] to the frame
// minimum, a crude band-pass that keeps the frame length. A minimum of
// exactly zero is replaced by a small positive floor.
func Gate(x []float64, low, high int) {
	if len(x) == 0 {
		return
	}
	minimum := floats.Min(x)
	if minimum == 0 {
		minimum = gateFloor
	}
	for i := range x {
		if i < low || i > high {
			x[i] = minimum
		}
	}
}

// LogPower converts magnitudes to log10 power, ln(x²)/ln(10), in place.
// Power is floored at gateFloor² so silent bins stay finite.
func LogPower(x []float64) {
	for i, v := range x {
		x[i] = math.Log(math.Max(v*v, gateFloor*gateFloor)) / math.Ln10
	}
}

// Lifter zeroes the cepstral coefficients with level < i <= len(x)-1-level,
// keeping the lowest and highest quefrencies that describe the spectral
// envelope.
func Lifter(x []float64, level int) {
	start := max(level+1, 0)
	end := min(len(x)-1-level, len(x)-1)
	for i := start; i <= end; i++ {
		x[i] = 0
	}
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, f float64) float64 {
	return a + f*(b-a)
}

// InverseLerp returns f such that Lerp(a, b, f) == v. a must differ from b.
func InverseLerp(a, b, v float64) float64 {
	return (v - a) / (b - a)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

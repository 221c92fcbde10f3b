// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"math/cmplx"

	"lipsync/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// Transformer runs forward and inverse Fourier transforms over real frames.
// Power-of-two lengths go through an iterative radix-2 Cooley-Tukey
// butterfly; any other length (the N/2+1 bin half spectrum, for example)
// uses gonum's mixed-radix complex FFT. Twiddle tables, gonum plans and the
// complex scratch buffer are cached per length, so a Transformer is not safe
// for concurrent use. The analysis worker owns exactly one.
type Transformer struct {
	scratch  []complex128
	twiddles map[int][]complex128
	plans    map[int]*fourier.CmplxFFT
}

// NewTransformer returns a Transformer with empty caches.
func NewTransformer() *Transformer {
	return &Transformer{
		twiddles: make(map[int][]complex128),
		plans:    make(map[int]*fourier.CmplxFFT),
	}
}

// Transform is a convenience wrapper for one-off transforms. Hot paths
// should keep a Transformer to reuse its caches.
func Transform(x []float64, inverse, magnitude bool) {
	NewTransformer().Transform(x, inverse, magnitude)
}

// Transform wraps x into complex samples, transforms them and writes back
// either the magnitude (magnitude == true) or the signed real part of each
// bin. The inverse transform is scaled by 1/N, so a forward transform
// followed by an inverse one with magnitude == false reconstructs x.
func (t *Transformer) Transform(x []float64, inverse, magnitude bool) {
	n := len(x)
	if n == 0 {
		return
	}
	if cap(t.scratch) < n {
		t.scratch = make([]complex128, n)
	}
	buf := t.scratch[:n]
	for i, v := range x {
		buf[i] = complex(v, 0)
	}

	t.FFT(buf, inverse)

	for i, c := range buf {
		if magnitude {
			x[i] = cmplx.Abs(c)
		} else {
			x[i] = real(c)
		}
	}
	if inverse {
		floats.Scale(1/float64(n), x)
	}
}

// FFT transforms buf in place without normalisation. The forward kernel is
// exp(-2πi·jk/N) and the inverse exp(+2πi·jk/N).
func (t *Transformer) FFT(buf []complex128, inverse bool) {
	n := len(buf)
	if n <= 1 {
		return
	}
	if bitint.IsPowerOfTwo(n) {
		t.radix2(buf, inverse)
		return
	}

	plan, ok := t.plans[n]
	if !ok {
		plan = fourier.NewCmplxFFT(n)
		t.plans[n] = plan
	}
	var out []complex128
	if inverse {
		out = plan.Sequence(nil, buf)
	} else {
		out = plan.Coefficients(nil, buf)
	}
	copy(buf, out)
}

// radix2 is the in-place decimation-in-time transform. After the bit
// reversal permutation each stage combines pairs of half-size transforms
// with the butterfly
//
//	X[k]       = E[k] + w^k·O[k]
//	X[k + h]   = E[k] - w^k·O[k]
//
// where h is half the current block size.
func (t *Transformer) radix2(x []complex128, inverse bool) {
	n := len(x)
	width := bitint.Log2(n)
	for i := range n {
		if j := bitint.ReverseBits(i, width); j > i {
			x[i], x[j] = x[j], x[i]
		}
	}

	tw := t.twiddleTable(n)
	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		stride := n / size
		for start := 0; start < n; start += size {
			for k := range half {
				w := tw[k*stride]
				if inverse {
					w = cmplx.Conj(w)
				}
				even := x[start+k]
				odd := w * x[start+k+half]
				x[start+k] = even + odd
				x[start+k+half] = even - odd
			}
		}
	}
}

// twiddleTable returns exp(-2πi·k/n) for k in [0, n/2).
func (t *Transformer) twiddleTable(n int) []complex128 {
	if tw, ok := t.twiddles[n]; ok {
		return tw
	}
	tw := make([]complex128, n/2)
	for k := range tw {
		tw[k] = cmplx.Rect(1, -2*math.Pi*float64(k)/float64(n))
	}
	t.twiddles[n] = tw
	return tw
}

// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"math"

	"lipsync/internal/dsp"
)

// ErrInsufficientInput is returned when a buffer is shorter than the
// analysis frame. The frame is skipped; no state changes.
var ErrInsufficientInput = errors.New("insufficient input for analysis frame")

// Frame is the output of one pipeline pass.
type Frame struct {
	// Features is the loudness-scaled spectral envelope, FFTSamples/4+1
	// bins long. It aliases the pipeline's workspace and is only valid
	// until the next call to Process.
	Features []float64
	// Amount is the loudness confidence in [0, 1].
	Amount float64
	// Level is the RMS level of the whole input buffer in dB.
	Level float64
}

// Pipeline turns raw samples into the feature vector consumed by peak
// extraction. It keeps the previous frame's spectrum for temporal
// smoothing, so a Pipeline belongs to a single goroutine.
type Pipeline struct {
	cfg         Config
	transformer *dsp.Transformer

	// Pre-allocated workspace.
	input    []float64 // whole input buffer as float64
	previous []float64 // pre-gate spectrum of the last frame
	hasPrev  bool
}

// NewPipeline returns a Pipeline for cfg. cfg is assumed valid; see
// Config.Validate.
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		transformer: dsp.NewTransformer(),
		input:       make([]float64, cfg.FFTSamples),
		previous:    make([]float64, cfg.FFTSamples/2+1),
	}
}

// Process runs the fixed per-frame transform over samples:
//
//	level -> window -> |FFT| -> half spectrum -> smooth -> gate ->
//	log power -> normalise -> IFFT -> lifter -> FFT -> quarter ->
//	normalise -> square -> normalise -> loudness scaling
//
// Only the first FFTSamples samples are analysed, but the level is measured
// over the whole buffer.
func (p *Pipeline) Process(samples []float32) (Frame, error) {
	n := p.cfg.FFTSamples
	if len(samples) < n {
		return Frame{}, fmt.Errorf("%w: got %d samples, need %d", ErrInsufficientInput, len(samples), n)
	}

	if cap(p.input) < len(samples) {
		p.input = make([]float64, len(samples))
	}
	input := p.input[:len(samples)]
	for i, s := range samples {
		input[i] = float64(s)
	}
	level := dsp.Level(input)

	frame := input[:n]
	dsp.Window(frame)
	p.transformer.Transform(frame, false, true)

	spectrum := frame[:n/2+1]
	if p.hasPrev {
		dsp.Smooth(spectrum, p.previous)
	}
	copy(p.previous, spectrum)
	p.hasPrev = true

	dsp.Gate(spectrum, p.cfg.GateLow, p.cfg.GateHigh)
	dsp.LogPower(spectrum)
	dsp.Normalize(spectrum)

	// Cepstrum, keep the envelope, back to the spectral domain.
	p.transformer.Transform(spectrum, true, false)
	dsp.Lifter(spectrum, p.cfg.LifterCutoff)
	p.transformer.Transform(spectrum, false, false)

	envelope := spectrum[:n/4+1]
	dsp.Normalize(envelope)
	for i, v := range envelope {
		envelope[i] = v * v
	}
	dsp.Normalize(envelope)

	dr := p.cfg.DynamicRange
	gain := math.Min(dr, math.Max(level+dr, 0)) / dr
	for i := range envelope {
		envelope[i] *= gain
	}

	return Frame{
		Features: envelope,
		Amount:   dsp.Clamp(dsp.InverseLerp(-dr, 0, level), 0, 1),
		Level:    level,
	}, nil
}

// Reset forgets the previous frame.
func (p *Pipeline) Reset() {
	p.hasPrev = false
}

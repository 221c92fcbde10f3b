// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Analyzer runs the full per-frame chain: pipeline, peak extraction,
// history averaging, classification and smoothing.
type Analyzer struct {
	cfg        Config
	pipeline   *Pipeline
	peaks      *PeakHistory
	classifier *Classifier
	smoother   *Smoother
}

// NewAnalyzer validates cfg and builds an Analyzer over templates. A nil
// templates argument selects DefaultTemplates.
func NewAnalyzer(cfg Config, templates *TemplateSet) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	return &Analyzer{
		cfg:        cfg,
		pipeline:   NewPipeline(cfg),
		peaks:      NewPeakHistory(cfg.HistorySize),
		classifier: NewClassifier(templates),
		smoother:   NewSmoother(cfg.HistorySize, cfg.ConfidenceThreshold, rng),
	}, nil
}

// Analyze processes one buffer. Buffers shorter than FFTSamples fail with
// ErrInsufficientInput and leave every history untouched.
func (a *Analyzer) Analyze(samples []float32) (Estimate, error) {
	frame, err := a.pipeline.Process(samples)
	if err != nil {
		return Estimate{}, fmt.Errorf("analyze: %w", err)
	}

	raw, distance := NoVowel, 0.0
	peaks := ExtractPeaks(frame.Features, a.cfg.PeakThreshold)
	if avg, ok := a.peaks.Observe(peaks); ok {
		if v, d, ok := a.classifier.Classify(avg); ok {
			raw, distance = v, d
		}
	}

	return Estimate{
		Raw:      raw,
		Vowel:    a.smoother.Update(raw, frame.Amount),
		Amount:   frame.Amount,
		Level:    math.Max(frame.Level, -a.cfg.DynamicRange),
		Distance: distance,
	}, nil
}

// Config returns the configuration the Analyzer was built with.
func (a *Analyzer) Config() Config { return a.cfg }

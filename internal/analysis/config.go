// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"

	"lipsync/pkg/bitint"
)

// Default analysis constants. The template database is tuned against these
// values; changing FFTSamples or the gate cutoffs will shift formant bins.
const (
	DefaultFFTSamples          = 1024
	DefaultDynamicRange        = 100.0 // dB
	DefaultGateLow             = 10
	DefaultGateHigh            = 95
	DefaultLifterCutoff        = 26
	DefaultPeakThreshold       = 0.1
	DefaultConfidenceThreshold = 0.5
	DefaultHistorySize         = 3
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid analysis config")

// Config holds the fixed parameters of the frame pipeline, peak extractor
// and smoother.
type Config struct {
	FFTSamples          int     `yaml:"fft_samples"`
	DynamicRange        float64 `yaml:"dynamic_range"`
	GateLow             int     `yaml:"gate_low"`
	GateHigh            int     `yaml:"gate_high"`
	LifterCutoff        int     `yaml:"lifter_cutoff"`
	PeakThreshold       float64 `yaml:"peak_threshold"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	HistorySize         int     `yaml:"history_size"`

	// Seed drives the cold-start vowel choice. Zero picks a time-based seed.
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns the configuration the built-in templates expect.
func DefaultConfig() Config {
	return Config{
		FFTSamples:          DefaultFFTSamples,
		DynamicRange:        DefaultDynamicRange,
		GateLow:             DefaultGateLow,
		GateHigh:            DefaultGateHigh,
		LifterCutoff:        DefaultLifterCutoff,
		PeakThreshold:       DefaultPeakThreshold,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		HistorySize:         DefaultHistorySize,
	}
}

// Validate reports the first out-of-range field.
func (c Config) Validate() error {
	half := c.FFTSamples / 2
	switch {
	case c.FFTSamples < 8 || !bitint.IsPowerOfTwo(c.FFTSamples):
		return fmt.Errorf("%w: fft_samples %d must be a power of two >= 8", ErrInvalidConfig, c.FFTSamples)
	case c.DynamicRange <= 0:
		return fmt.Errorf("%w: dynamic_range must be positive", ErrInvalidConfig)
	case c.GateLow < 0 || c.GateHigh < c.GateLow || c.GateHigh > half:
		return fmt.Errorf("%w: gate [%d, %d] outside [0, %d]", ErrInvalidConfig, c.GateLow, c.GateHigh, half)
	case c.LifterCutoff < 0 || c.LifterCutoff > half/2:
		return fmt.Errorf("%w: lifter_cutoff %d outside [0, %d]", ErrInvalidConfig, c.LifterCutoff, half/2)
	case c.PeakThreshold < 0 || c.PeakThreshold >= 1:
		return fmt.Errorf("%w: peak_threshold %g outside [0, 1)", ErrInvalidConfig, c.PeakThreshold)
	case c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1:
		return fmt.Errorf("%w: confidence_threshold %g outside [0, 1]", ErrInvalidConfig, c.ConfidenceThreshold)
	case c.HistorySize < 1:
		return fmt.Errorf("%w: history_size must be at least 1", ErrInvalidConfig)
	}
	return nil
}

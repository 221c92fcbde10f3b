// SPDX-License-Identifier: MIT
package analysis

// Estimate is the per-frame output of the analyzer.
type Estimate struct {
	Raw    Vowel   `json:"raw"`    // unsmoothed classification, NoVowel when ambiguous
	Vowel  Vowel   `json:"vowel"`  // smoothed vowel to display
	Amount float64 `json:"amount"` // loudness confidence in [0, 1]

	Level    float64 `json:"level"`    // RMS level in dB, floored at -DynamicRange
	Distance float64 `json:"distance"` // template distance of Raw, 0 when Raw is NoVowel
}

// Name returns the display name of the smoothed vowel.
func (e Estimate) Name() string { return e.Vowel.String() }

// FrameAnalyzer turns one buffer of samples into an Estimate. Implementations
// keep cross-frame state and are not safe for concurrent use; the worker
// owns exactly one.
type FrameAnalyzer interface {
	Analyze(samples []float32) (Estimate, error)
}

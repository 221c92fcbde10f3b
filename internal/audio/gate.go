// SPDX-License-Identifier: MIT
package audio

func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold adjusts the noise gate threshold.
// The value is a linear peak amplitude in 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	e.gateThreshold = float32(min(max(threshold, 0), 1))
}

// GetGateThreshold returns the current noise gate threshold.
func (e *Engine) GetGateThreshold() float64 {
	return float64(e.gateThreshold)
}

// gateOpen reports whether buffer's peak amplitude exceeds the threshold.
// A disabled gate is always open.
func (e *Engine) gateOpen(buffer []float32) bool {
	if !e.gateEnabled {
		return true
	}
	return peakAmplitude(buffer) > e.gateThreshold
}

func peakAmplitude(buffer []float32) float32 {
	var peak float32
	for _, s := range buffer {
		peak = max(peak, s, -s)
	}
	return peak
}

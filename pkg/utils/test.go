// Package utils holds signal generators and fakes shared by the test suites.
package utils

import (
	"math"
	"sync"
)

// MockTransport records everything sent through it instead of transmitting.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores the data for later inspection.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Messages returns a copy of everything sent so far.
func (m *MockTransport) Messages() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.Sent))
	copy(out, m.Sent)
	return out
}

// GenerateSineWave returns size samples of a sine at frequency Hz with peak
// amplitude gain.
func GenerateSineWave(size int, sampleRate, frequency, gain float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = float32(math.Sin(2*math.Pi*frequency*t) * gain)
	}
	return buffer
}

// GenerateVoicedFrame approximates a sustained vowel: a pulse train at pitch
// Hz whose harmonics are weighted by resonances at the given formant
// frequencies. The result is scaled so its peak magnitude equals gain.
func GenerateVoicedFrame(size int, sampleRate, pitch float64, formants []float64, gain float64) []float32 {
	const bandwidth = 120.0

	buffer := make([]float64, size)
	for h := 1; float64(h)*pitch < sampleRate/2; h++ {
		freq := float64(h) * pitch
		amp := 0.0
		for _, f := range formants {
			d := (freq - f) / bandwidth
			amp += 1 / (1 + d*d)
		}
		for i := range buffer {
			buffer[i] += amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
		}
	}

	peak := 0.0
	for _, v := range buffer {
		peak = math.Max(peak, math.Abs(v))
	}
	out := make([]float32, size)
	if peak == 0 {
		return out
	}
	for i, v := range buffer {
		out[i] = float32(v / peak * gain)
	}
	return out
}

// FindPeakBin returns the index of the largest value within [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

// SPDX-License-Identifier: MIT
package audio

// Sink receives analysis frames. worker.Worker satisfies it.
type Sink interface {
	Submit(samples []float32) error
}

// Accumulator regroups arbitrarily sized capture buffers into fixed-size
// analysis frames. Each emitted frame is a fresh slice whose ownership
// passes to the sink. Frames do not overlap.
type Accumulator struct {
	frameSize int
	buf       []float32
	n         int
	sink      Sink
	dropped   int
}

// NewAccumulator emits frames of frameSize samples to sink.
func NewAccumulator(frameSize int, sink Sink) *Accumulator {
	return &Accumulator{
		frameSize: frameSize,
		buf:       make([]float32, frameSize),
		sink:      sink,
	}
}

// Write appends samples, emitting every frame that completes. It returns
// the number of frames emitted.
func (a *Accumulator) Write(samples []float32) int {
	emitted := 0
	for len(samples) > 0 {
		k := copy(a.buf[a.n:], samples)
		a.n += k
		samples = samples[k:]

		if a.n == a.frameSize {
			frame := a.buf
			a.buf = make([]float32, a.frameSize)
			a.n = 0
			if err := a.sink.Submit(frame); err != nil {
				a.dropped++
				continue
			}
			emitted++
		}
	}
	return emitted
}

// Buffered returns the number of samples waiting for a full frame.
func (a *Accumulator) Buffered() int { return a.n }

// Dropped returns the number of frames the sink refused.
func (a *Accumulator) Dropped() int { return a.dropped }

// Reset discards any partial frame.
func (a *Accumulator) Reset() { a.n = 0 }

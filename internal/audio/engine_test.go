// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"testing"

	"lipsync/internal/config"
)

const (
	testSampleRate = 44100
	testFrameSize  = 512
)

// frameSink records submitted frames.
type frameSink struct {
	frames [][]float32
	err    error
}

func (s *frameSink) Submit(samples []float32) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, samples)
	return nil
}

func newTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Audio.SampleRate = testSampleRate
	cfg.Audio.FramesPerBuffer = testFrameSize
	cfg.Audio.InputChannels = 2
	cfg.Audio.GateEnabled = false
	return cfg
}

func TestProcessInputStreamEmitsAnalysisFrames(t *testing.T) {
	cfg := newTestConfig()
	sink := &frameSink{}
	engine := newEngine(cfg, sink)

	// Two stereo callbacks of 512 frames make one 1024-sample mono frame.
	in := make([]float32, 2*testFrameSize)
	for i := range testFrameSize {
		in[2*i] = 0.5
		in[2*i+1] = -0.25
	}
	engine.processInputStream(in)
	if len(sink.frames) != 0 {
		t.Fatalf("frame emitted after half a frame of input")
	}
	engine.processInputStream(in)

	if len(sink.frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(sink.frames))
	}
	frame := sink.frames[0]
	if len(frame) != cfg.Analysis.FFTSamples {
		t.Fatalf("frame length = %d, want %d", len(frame), cfg.Analysis.FFTSamples)
	}
	for i, s := range frame {
		if s != 0.125 {
			t.Fatalf("frame[%d] = %v, want downmixed 0.125", i, s)
		}
	}
	if got := engine.Callbacks(); got != 2 {
		t.Errorf("Callbacks = %d, want 2", got)
	}
}

func TestClosedGateEmitsSilence(t *testing.T) {
	cfg := newTestConfig()
	cfg.Audio.InputChannels = 1
	cfg.Audio.GateEnabled = true
	cfg.Audio.GateThreshold = 0.1
	sink := &frameSink{}
	engine := newEngine(cfg, sink)

	for range 2 {
		buf := make([]float32, testFrameSize)
		copy(buf, quietBuffer)
		engine.processInputStream(buf)
	}

	if len(sink.frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(sink.frames))
	}
	for i, s := range sink.frames[0] {
		if s != 0 {
			t.Fatalf("frame[%d] = %v, want silence", i, s)
		}
	}
}

func TestProcessBufferDoesNotShareFrames(t *testing.T) {
	cfg := newTestConfig()
	cfg.Audio.InputChannels = 1
	sink := &frameSink{}
	engine := newEngine(cfg, sink)

	buf := make([]float32, testFrameSize)
	for i := range 4 {
		for j := range buf {
			buf[j] = float32(i)
		}
		engine.processBuffer(buf)
	}

	if len(sink.frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(sink.frames))
	}
	if sink.frames[0][0] != 0 || sink.frames[1][0] != 2 {
		t.Errorf("frames overwritten: first samples %v, %v", sink.frames[0][0], sink.frames[1][0])
	}
}

func TestAccumulator(t *testing.T) {
	tests := []struct {
		name     string
		writes   []int
		frames   int
		buffered int
	}{
		{"exact", []int{8}, 1, 0},
		{"split", []int{3, 5}, 1, 0},
		{"partial", []int{5}, 0, 5},
		{"several in one write", []int{19}, 2, 3},
		{"empty write", []int{0}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &frameSink{}
			acc := NewAccumulator(8, sink)
			next := float32(0)
			for _, n := range tt.writes {
				buf := make([]float32, n)
				for i := range buf {
					buf[i] = next
					next++
				}
				acc.Write(buf)
			}
			if len(sink.frames) != tt.frames {
				t.Fatalf("frames = %d, want %d", len(sink.frames), tt.frames)
			}
			if acc.Buffered() != tt.buffered {
				t.Errorf("Buffered = %d, want %d", acc.Buffered(), tt.buffered)
			}
			for f, frame := range sink.frames {
				for i, s := range frame {
					if want := float32(f*8 + i); s != want {
						t.Fatalf("frame %d sample %d = %v, want %v", f, i, s, want)
					}
				}
			}
		})
	}
}

func TestAccumulatorCountsDropped(t *testing.T) {
	sink := &frameSink{err: errors.New("closed")}
	acc := NewAccumulator(4, sink)

	if n := acc.Write(make([]float32, 9)); n != 0 {
		t.Errorf("Write emitted %d frames into a failing sink", n)
	}
	if acc.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", acc.Dropped())
	}

	acc.Reset()
	if acc.Buffered() != 0 {
		t.Errorf("Buffered after Reset = %d", acc.Buffered())
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		in       []float32
		channels int
		dst      int
		want     []float32
	}{
		{"mono copy", []float32{1, 2, 3}, 1, 3, []float32{1, 2, 3}},
		{"stereo", []float32{1, 0, 0.5, 0.5}, 2, 2, []float32{0.5, 0.5}},
		{"dst shorter", []float32{1, 1, 2, 2, 3, 3}, 2, 2, []float32{1, 2}},
		{"partial frame ignored", []float32{1, 1, 1, 1, 1}, 2, 4, []float32{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]float32, tt.dst)
			n := Downmix(dst, tt.in, tt.channels)
			if n != len(tt.want) {
				t.Fatalf("n = %d, want %d", n, len(tt.want))
			}
			for i := range tt.want {
				if dst[i] != tt.want[i] {
					t.Errorf("dst[%d] = %v, want %v", i, dst[i], tt.want[i])
				}
			}
		})
	}
}

func TestPCMConversion(t *testing.T) {
	if got := DecodePCM16([]byte{0x00, 0x80, 0xff, 0x7f, 0x00}); len(got) != 2 || got[0] != -1 || got[1] != float32(32767)/32768 {
		t.Errorf("DecodePCM16 = %v", got)
	}

	tests := []struct {
		in       float32
		bitDepth int
		want     int
	}{
		{0, 16, 0},
		{0.5, 16, 16384},
		{-1, 16, -32768},
		{1, 16, 32767},
		{2, 16, 32767},
		{-2, 24, -8388608},
	}
	for _, tt := range tests {
		if got := floatToInt(tt.in, tt.bitDepth); got != tt.want {
			t.Errorf("floatToInt(%v, %d) = %d, want %d", tt.in, tt.bitDepth, got, tt.want)
		}
	}
	if got := intToFloat(16384, 16); got != 0.5 {
		t.Errorf("intToFloat(16384, 16) = %v, want 0.5", got)
	}
}

func TestProcessBufferAllocs(t *testing.T) {
	cfg := newTestConfig()
	cfg.Audio.InputChannels = 1
	cfg.Audio.GateEnabled = true
	engine := newEngine(cfg, &frameSink{})
	buf := make([]float32, 64) // never completes a frame within one run

	allocs := testing.AllocsPerRun(10, func() {
		engine.processBuffer(buf)
		engine.frames.Reset()
	})
	if allocs > 0 {
		t.Errorf("expected zero allocations per partial buffer, got %.1f", allocs)
	}
}

func BenchmarkProcessInputStream(b *testing.B) {
	cfg := newTestConfig()
	engine := newEngine(cfg, &frameSink{err: errors.New("discard")})
	in := make([]float32, 2*testFrameSize)
	copy(in, loudBuffer)

	b.ReportAllocs()
	for b.Loop() {
		engine.processInputStream(in)
	}
}

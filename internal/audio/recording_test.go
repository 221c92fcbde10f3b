// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lipsync/pkg/utils"
)

func TestRecorderRoundTrip(t *testing.T) {
	for _, bitDepth := range []int{16, 24} {
		t.Run(fmt.Sprintf("%dbit", bitDepth), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tone.wav")
			rec, err := NewRecorder(path, testSampleRate, bitDepth)
			if err != nil {
				t.Fatalf("NewRecorder: %v", err)
			}

			tone := utils.GenerateSineWave(2048, testSampleRate, 440, 0.5)
			if err := rec.Write(tone[:1000]); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if err := rec.Write(tone[1000:]); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if rec.Frames() != len(tone) {
				t.Errorf("Frames = %d, want %d", rec.Frames(), len(tone))
			}
			if err := rec.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			clip, err := ReadWAV(path)
			if err != nil {
				t.Fatalf("ReadWAV: %v", err)
			}
			if clip.SampleRate != testSampleRate || clip.Channels != 1 || clip.BitDepth != bitDepth {
				t.Errorf("format = %d Hz %d ch %d bit", clip.SampleRate, clip.Channels, clip.BitDepth)
			}
			if len(clip.Samples) != len(tone) {
				t.Fatalf("decoded %d samples, want %d", len(clip.Samples), len(tone))
			}
			tolerance := 2.0 / float64(int64(1)<<(bitDepth-1))
			for i := range tone {
				if absFloat(float64(clip.Samples[i]-tone[i])) > tolerance {
					t.Fatalf("sample %d = %v, want %v", i, clip.Samples[i], tone[i])
				}
			}
		})
	}
}

func TestRecorderWriteAfterClose(t *testing.T) {
	rec, err := NewRecorder(filepath.Join(t.TempDir(), "x.wav"), testSampleRate, 16)
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if err := rec.Write([]float32{0}); err != ErrRecorderClosed {
		t.Errorf("Write after Close = %v, want ErrRecorderClosed", err)
	}
}

func TestRecorderRejectsBitDepth(t *testing.T) {
	if _, err := NewRecorder(filepath.Join(t.TempDir(), "x.wav"), testSampleRate, 12); err == nil {
		t.Error("expected error for 12-bit recording")
	}
}

func TestEngineRecording(t *testing.T) {
	cfg := newTestConfig()
	cfg.Audio.InputChannels = 1
	engine := newEngine(cfg, &frameSink{})
	path := filepath.Join(t.TempDir(), "session.wav")

	if err := engine.StopRecording(); err != nil {
		t.Errorf("StopRecording while idle = %v", err)
	}
	if err := engine.StartRecording(path); err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if !engine.Recording() {
		t.Error("engine should be recording")
	}
	if err := engine.StartRecording(path); err == nil || !strings.Contains(err.Error(), "already recording") {
		t.Errorf("second StartRecording = %v, want already recording", err)
	}

	engine.processInputStream(utils.GenerateSineWave(testFrameSize, testSampleRate, 220, 0.3))
	engine.processInputStream(utils.GenerateSineWave(testFrameSize, testSampleRate, 220, 0.3))

	if err := engine.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if engine.Recording() {
		t.Error("engine still recording after Close")
	}

	clip, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if len(clip.Samples) != 2*testFrameSize {
		t.Errorf("recorded %d samples, want %d", len(clip.Samples), 2*testFrameSize)
	}
}

func TestReadWAVInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWAV(path); err == nil {
		t.Error("expected error for invalid file")
	}
	if _, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClipFrames(t *testing.T) {
	clip := &Clip{SampleRate: 10, Samples: []float32{1, 2, 3, 4, 5}}

	frames := clip.Frames(2)
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if frames[2][0] != 5 || frames[2][1] != 0 {
		t.Errorf("last frame = %v, want zero padded [5 0]", frames[2])
	}
	if clip.Frames(0) != nil {
		t.Error("Frames(0) should be nil")
	}
	if d := clip.Duration(); d != 500*time.Millisecond {
		t.Errorf("Duration = %s, want 500ms", d)
	}
}

func TestRecordingPath(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	want := filepath.Join("out", "lipsync-20250304-050607.wav")
	if got := RecordingPath("out", at); got != want {
		t.Errorf("RecordingPath = %q, want %q", got, want)
	}
}

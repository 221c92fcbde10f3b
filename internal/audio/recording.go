// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrRecorderClosed is returned by Write after Close.
var ErrRecorderClosed = errors.New("recorder closed")

// Recorder writes mono float samples to an integer PCM WAV file.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *wav.Encoder
	buf      *audio.IntBuffer // reused conversion buffer
	bitDepth int
	frames   int
}

// NewRecorder creates filename and writes a WAV header for mono audio.
func NewRecorder(filename string, sampleRate, bitDepth int) (*Recorder, error) {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, bitDepth, 1, 1), // 1 = PCM
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		bitDepth: bitDepth,
	}, nil
}

// Write appends samples, clipping anything outside [-1, 1).
func (r *Recorder) Write(samples []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return ErrRecorderClosed
	}
	if cap(r.buf.Data) < len(samples) {
		r.buf.Data = make([]int, len(samples))
	}
	r.buf.Data = r.buf.Data[:len(samples)]
	for i, s := range samples {
		r.buf.Data[i] = floatToInt(s, r.bitDepth)
	}
	if err := r.encoder.Write(r.buf); err != nil {
		return err
	}
	r.frames += len(samples)
	return nil
}

// Frames returns the number of samples written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close finalises the WAV header and closes the file. Further calls are
// no-ops.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return nil
	}
	encErr := r.encoder.Close()
	fileErr := r.file.Close()
	r.encoder, r.file = nil, nil
	return errors.Join(encErr, fileErr)
}

// RecordingPath returns a timestamped WAV path inside dir.
func RecordingPath(dir string, at time.Time) string {
	return filepath.Join(dir, "lipsync-"+at.Format("20060102-150405")+".wav")
}

func (e *Engine) StartRecording(filename string) error {
	if e.recorder.Load() != nil {
		return fmt.Errorf("already recording")
	}

	rec, err := NewRecorder(filename, int(e.config.Audio.SampleRate), e.config.Recording.BitDepth)
	if err != nil {
		return err
	}
	if !e.recorder.CompareAndSwap(nil, rec) {
		rec.Close()
		os.Remove(filename)
		return fmt.Errorf("already recording")
	}
	e.log.Infof("recording input to %s", filename)
	return nil
}

func (e *Engine) StopRecording() error {
	rec := e.recorder.Swap(nil)
	if rec == nil {
		return nil
	}
	if err := rec.Close(); err != nil {
		return fmt.Errorf("stop recording: %w", err)
	}
	e.log.Infof("recording stopped after %d samples", rec.Frames())
	return nil
}

// Recording reports whether input is being recorded.
func (e *Engine) Recording() bool { return e.recorder.Load() != nil }

// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned for files that are not PCM WAV.
var ErrInvalidWAV = errors.New("invalid wav file")

// Clip is a decoded WAV file downmixed to mono.
type Clip struct {
	SampleRate int
	Channels   int // channel count of the source file
	BitDepth   int
	Samples    []float32
}

// ReadWAV decodes an integer PCM WAV file.
func ReadWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels < 1 || bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("%s: %d channels at %d bits: %w", path, channels, bitDepth, ErrInvalidWAV)
	}

	interleaved := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if bitDepth == 8 {
			v -= 128 // 8-bit WAV is unsigned
		}
		interleaved[i] = intToFloat(v, bitDepth)
	}
	mono := make([]float32, len(interleaved)/channels)
	Downmix(mono, interleaved, channels)

	return &Clip{
		SampleRate: int(dec.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
		Samples:    mono,
	}, nil
}

// Frames splits the clip into consecutive frames of size samples. A short
// final frame is zero padded.
func (c *Clip) Frames(size int) [][]float32 {
	if size <= 0 {
		return nil
	}
	var frames [][]float32
	for off := 0; off < len(c.Samples); off += size {
		frame := make([]float32, size)
		copy(frame, c.Samples[off:])
		frames = append(frames, frame)
	}
	return frames
}

func (c *Clip) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

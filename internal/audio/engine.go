// SPDX-License-Identifier: MIT
/*
Package audio captures microphone input with PortAudio and feeds it to the
analysis worker:

	PortAudio callback -> downmix -> noise gate -> accumulator -> Sink

It also records the captured input to WAV and reads WAV files for offline
analysis.

Thread Safety:
  - The capture callback only copies into pre-allocated buffers and hands
    finished frames to the sink, which never blocks
  - The active recorder is swapped atomically
  - The callback locks its OS thread while it runs
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"lipsync/internal/config"
	"lipsync/internal/log"

	"github.com/gordonklaus/portaudio"
)

type Engine struct {
	config *config.Config
	log    *log.Logger

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream
	mono         []float32 // downmixed callback buffer

	// Analysis frames.
	frames *Accumulator

	// Noise gate for signal conditioning.
	gateEnabled   bool
	gateThreshold float32 // linear peak amplitude, 0-1

	// Active recording, nil when not recording.
	recorder atomic.Pointer[Recorder]

	callbacks atomic.Uint64
}

// NewEngine prepares capture from the configured input device. PortAudio
// must already be initialised. Analysis frames of cfg.Analysis.FFTSamples
// samples go to sink.
func NewEngine(cfg *config.Config, sink Sink) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}
	if inputDevice.MaxInputChannels < cfg.Audio.InputChannels {
		return nil, fmt.Errorf("device %s supports %d input channels, %d requested",
			inputDevice.Name, inputDevice.MaxInputChannels, cfg.Audio.InputChannels)
	}

	e := newEngine(cfg, sink)
	e.inputDevice = inputDevice
	if cfg.Audio.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}
	return e, nil
}

// newEngine builds the processing side without touching PortAudio.
func newEngine(cfg *config.Config, sink Sink) *Engine {
	e := &Engine{
		config: cfg,
		log:    log.New("audio"),
		mono:   make([]float32, cfg.Audio.FramesPerBuffer),
		frames: NewAccumulator(cfg.Analysis.FFTSamples, sink),
	}
	e.SetGateThreshold(cfg.Audio.GateThreshold)
	if cfg.Audio.GateEnabled {
		e.EnableGate()
	} else {
		e.DisableGate()
	}
	return e
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("start input stream: %w", err)
	}

	e.log.Infof("capturing from %s (%d ch, %.0f Hz, %d frames/buffer, latency %s)",
		e.inputDevice.Name, e.config.Audio.InputChannels, e.config.Audio.SampleRate,
		e.config.Audio.FramesPerBuffer, e.inputLatency)
	if e.gateEnabled {
		e.log.Debugf("noise gate at peak %.4f", e.GetGateThreshold())
	}
	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream == nil {
		return nil
	}
	if err := e.inputStream.Stop(); err != nil {
		return err
	}
	if err := e.inputStream.Close(); err != nil {
		return err
	}
	e.inputStream = nil
	return nil
}

// processInputStream is the PortAudio callback. It only uses pre-allocated
// buffers except for the frames handed to the sink.
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	e.callbacks.Add(1)
	n := Downmix(e.mono, in, e.config.Audio.InputChannels)
	buffer := e.mono[:n]

	if rec := e.recorder.Load(); rec != nil {
		if err := rec.Write(buffer); err != nil && !errors.Is(err, ErrRecorderClosed) {
			e.log.Errorf("recording write failed: %v", err)
		}
	}

	e.processBuffer(buffer)
}

// processBuffer applies the gate and forwards the buffer for analysis. A
// closed gate replaces the buffer with silence rather than skipping it, so
// the analyzer still sees time pass and holds its output.
func (e *Engine) processBuffer(buffer []float32) {
	if !e.gateOpen(buffer) {
		clear(buffer)
	}
	e.frames.Write(buffer)
}

// DroppedFrames returns the number of analysis frames the sink refused.
func (e *Engine) DroppedFrames() int { return e.frames.Dropped() }

// Callbacks returns the number of capture callbacks run so far.
func (e *Engine) Callbacks() uint64 { return e.callbacks.Load() }

func (e *Engine) Close() error {
	if err := e.StopRecording(); err != nil {
		return err
	}
	return e.StopInputStream()
}

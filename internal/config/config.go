// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"lipsync/internal/analysis"
)

// Defaults and hardware limits for the capture side.
const (
	DefaultDeviceID        = MinDeviceID // system default input
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 512
	DefaultInputChannels   = 1
	DefaultGateThreshold   = 0.001 // ~-60 dBFS peak
	DefaultPollInterval    = 10 * time.Millisecond

	DefaultRecordingDir = "./recordings"
	DefaultBitDepth     = 16

	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz
	DefaultMetricsAddress   = "127.0.0.1:2112"

	MinDeviceID     = -1 // -1 represents the system default device
	MinSampleRate   = 8000
	MaxSampleRate   = 192000
	MaxBufferFrames = 8192
)

// Config is the application configuration, loaded from YAML.
type Config struct {
	LogLevel  string          `yaml:"log_level"` // debug, info, warn or error
	TUI       bool            `yaml:"tui"`       // show the live vowel display
	Audio     AudioConfig     `yaml:"audio"`
	Analysis  analysis.Config `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AudioConfig holds capture settings.
type AudioConfig struct {
	InputDevice     int           `yaml:"input_device"`      // PortAudio device index, -1 for default
	SampleRate      float64       `yaml:"sample_rate"`       // Hz
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // PortAudio callback size; analysis frames are accumulated separately
	LowLatency      bool          `yaml:"low_latency"`       // request the device's low input latency
	InputChannels   int           `yaml:"input_channels"`    // channels captured and downmixed to mono
	GateEnabled     bool          `yaml:"gate_enabled"`      // silence buffers whose peak is below the threshold
	GateThreshold   float64       `yaml:"gate_threshold"`    // linear peak amplitude, 0-1
	PollInterval    time.Duration `yaml:"poll_interval"`     // how often results are collected from the worker
}

// RecordingConfig holds settings for recording the captured input.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	BitDepth  int    `yaml:"bit_depth"` // 16, 24 or 32
}

// TransportConfig selects where estimates are delivered.
type TransportConfig struct {
	LogEvents        bool          `yaml:"log_events"` // log every estimate at debug level
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"` // 0 sends every estimate
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
			GateEnabled:     true,
			GateThreshold:   DefaultGateThreshold,
			PollInterval:    DefaultPollInterval,
		},
		Analysis: analysis.DefaultConfig(),
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			LogEvents:        true,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddress,
		},
	}
}

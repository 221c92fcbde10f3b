// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"lipsync/internal/log"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LIPSYNC_"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// LoadConfig loads configuration from the YAML file at path. An empty path
// tries "config.yaml" in the working directory and falls back to the
// built-in defaults when it does not exist. Fields missing from the file
// keep their defaults. Environment overrides are applied after the file,
// then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Debugf("config: loaded %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}

	a := c.Audio
	switch {
	case a.InputDevice < MinDeviceID:
		return fmt.Errorf("%w: audio.input_device %d", ErrInvalid, a.InputDevice)
	case a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate:
		return fmt.Errorf("%w: audio.sample_rate %.0f outside [%d, %d]", ErrInvalid, a.SampleRate, MinSampleRate, MaxSampleRate)
	case a.FramesPerBuffer <= 0 || a.FramesPerBuffer > MaxBufferFrames:
		return fmt.Errorf("%w: audio.frames_per_buffer %d outside (0, %d]", ErrInvalid, a.FramesPerBuffer, MaxBufferFrames)
	case a.InputChannels < 1:
		return fmt.Errorf("%w: audio.input_channels must be at least 1", ErrInvalid)
	case a.GateThreshold < 0 || a.GateThreshold > 1:
		return fmt.Errorf("%w: audio.gate_threshold %g outside [0, 1]", ErrInvalid, a.GateThreshold)
	case a.PollInterval <= 0:
		return fmt.Errorf("%w: audio.poll_interval must be positive", ErrInvalid)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			return fmt.Errorf("%w: recording.bit_depth %d", ErrInvalid, c.Recording.BitDepth)
		}
	}

	t := c.Transport
	if t.WebSocketEnabled {
		if _, _, err := net.SplitHostPort(t.WebSocketAddress); err != nil {
			return fmt.Errorf("%w: transport.websocket_address: %w", ErrInvalid, err)
		}
	}
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			return fmt.Errorf("%w: transport.udp_target_address: %w", ErrInvalid, err)
		}
		if t.UDPSendInterval < 0 {
			return fmt.Errorf("%w: transport.udp_send_interval must not be negative", ErrInvalid)
		}
	}

	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			return fmt.Errorf("%w: metrics.address: %w", ErrInvalid, err)
		}
	}
	return nil
}

// applyEnvOverrides reads LIPSYNC_* variables. Values that fail to parse
// are logged and ignored.
func (c *Config) applyEnvOverrides() {
	envString("LOG_LEVEL", &c.LogLevel)
	envBool("TUI", &c.TUI)

	envInt("INPUT_DEVICE", &c.Audio.InputDevice)
	envFloat("SAMPLE_RATE", &c.Audio.SampleRate)
	envBool("GATE_ENABLED", &c.Audio.GateEnabled)
	envFloat("GATE_THRESHOLD", &c.Audio.GateThreshold)

	envUint("SEED", &c.Analysis.Seed)

	envBool("RECORDING_ENABLED", &c.Recording.Enabled)
	envString("RECORDING_DIR", &c.Recording.OutputDir)

	envBool("WS_ENABLED", &c.Transport.WebSocketEnabled)
	envString("WS_ADDRESS", &c.Transport.WebSocketAddress)
	envBool("UDP_ENABLED", &c.Transport.UDPEnabled)
	envString("UDP_TARGET_ADDRESS", &c.Transport.UDPTargetAddress)
	envDuration("UDP_SEND_INTERVAL", &c.Transport.UDPSendInterval)

	envBool("METRICS_ENABLED", &c.Metrics.Enabled)
	envString("METRICS_ADDRESS", &c.Metrics.Address)
}

func lookup(name string) (string, string, bool) {
	key := EnvPrefix + name
	val, ok := os.LookupEnv(key)
	return key, val, ok
}

func envString(name string, dst *string) {
	if key, val, ok := lookup(name); ok {
		*dst = val
		log.Debugf("config: %s=%s", key, val)
	}
}

func envBool(name string, dst *bool) {
	key, val, ok := lookup(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Warnf("config: ignoring %s: %v", key, err)
		return
	}
	*dst = b
	log.Debugf("config: %s=%v", key, b)
}

func envInt(name string, dst *int) {
	key, val, ok := lookup(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Warnf("config: ignoring %s: %v", key, err)
		return
	}
	*dst = n
	log.Debugf("config: %s=%d", key, n)
}

func envUint(name string, dst *uint64) {
	key, val, ok := lookup(name)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		log.Warnf("config: ignoring %s: %v", key, err)
		return
	}
	*dst = n
	log.Debugf("config: %s=%d", key, n)
}

func envFloat(name string, dst *float64) {
	key, val, ok := lookup(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warnf("config: ignoring %s: %v", key, err)
		return
	}
	*dst = f
	log.Debugf("config: %s=%g", key, f)
}

func envDuration(name string, dst *time.Duration) {
	key, val, ok := lookup(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Warnf("config: ignoring %s: %v", key, err)
		return
	}
	*dst = d
	log.Debugf("config: %s=%s", key, d)
}

// SPDX-License-Identifier: MIT
package audio

import "time"

// Device describes a host audio device.
type Device struct {
	ID                int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   time.Duration
	HighInputLatency  time.Duration
}

// HostDevices returns every device PortAudio knows about. PortAudio must
// be initialised.
func HostDevices() ([]Device, error) {
	infos, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, len(infos))
	for i, info := range infos {
		devices[i] = Device{
			ID:                i,
			Name:              info.Name,
			MaxInputChannels:  info.MaxInputChannels,
			MaxOutputChannels: info.MaxOutputChannels,
			DefaultSampleRate: info.DefaultSampleRate,
			LowInputLatency:   info.DefaultLowInputLatency,
			HighInputLatency:  info.DefaultHighInputLatency,
		}
	}
	return devices, nil
}

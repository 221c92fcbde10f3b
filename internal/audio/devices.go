// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"

	"lipsync/internal/config"

	"github.com/gordonklaus/portaudio"
)

// PortAudio entry points, swappable in tests.
var (
	paLibInitialize             = portaudio.Initialize
	paLibTerminate              = portaudio.Terminate
	paLibDevicesFunc            = portaudio.Devices
	paLibDefaultInputDeviceFunc = portaudio.DefaultInputDevice
	paDevicesFunc               = paDevices
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := paLibInitialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := paLibTerminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// InputDevice retrieves the audio input device for the given device ID.
// config.MinDeviceID (-1) selects the system default input device.
func InputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	devices, err := paDevicesFunc()
	if err != nil {
		return nil, err
	}

	if deviceID == config.MinDeviceID {
		return paLibDefaultInputDeviceFunc()
	}

	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	device := devices[deviceID]
	if device.MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) does not support input", deviceID, device.Name)
	}
	return device, nil
}

// ListDevices writes a description of every device that can capture audio.
func ListDevices(w io.Writer) error {
	devices, err := HostDevices()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAvailable Input Devices\n\n")
	for _, d := range devices {
		if d.MaxInputChannels == 0 {
			continue
		}
		fmt.Fprintf(w, "[%d] %s\n", d.ID, d.Name)
		fmt.Fprintf(w, "    Input channels: %d\n", d.MaxInputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n\n",
			d.LowInputLatency.Seconds()*1000, d.HighInputLatency.Seconds()*1000)
	}
	return nil
}

// paDevices returns all PortAudio devices, never a nil slice on success.
func paDevices() ([]*portaudio.DeviceInfo, error) {
	devices, err := paLibDevicesFunc()
	if err != nil {
		return nil, err
	}
	if devices == nil {
		devices = []*portaudio.DeviceInfo{}
	}
	return devices, nil
}

// Package portaudio implements the voicecall audio devices on top of
// PortAudio (github.com/gordonklaus/portaudio).
//
// Building requires the PortAudio library installed via pkg-config
// (brew install portaudio, apt install portaudio19-dev).
package portaudio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pa "github.com/gordonklaus/portaudio"

	"github.com/normacomex/normabot/pkg/voicecall"
)

// DeviceInfo describes an audio device.
type DeviceInfo struct {
	Index             int           `json:"index"`
	Name              string        `json:"name"`
	HostAPI           string        `json:"host_api,omitzero"`
	MaxInputChannels  int           `json:"max_input_channels"`
	MaxOutputChannels int           `json:"max_output_channels"`
	DefaultSampleRate float64       `json:"default_sample_rate"`
	InputLatency      time.Duration `json:"input_latency,omitzero"`
	OutputLatency     time.Duration `json:"output_latency,omitzero"`
	IsDefaultInput    bool          `json:"is_default_input,omitzero"`
	IsDefaultOutput   bool          `json:"is_default_output,omitzero"`
}

// Devices lists the available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	defer pa.Terminate()

	devices, err := pa.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: list devices: %w", err)
	}
	in, _ := pa.DefaultInputDevice()
	out, _ := pa.DefaultOutputDevice()

	infos := make([]DeviceInfo, 0, len(devices))
	for _, d := range devices {
		info := DeviceInfo{
			Index:             d.Index,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
			DefaultSampleRate: d.DefaultSampleRate,
			InputLatency:      d.DefaultLowInputLatency,
			OutputLatency:     d.DefaultLowOutputLatency,
			IsDefaultInput:    in != nil && d.Index == in.Index,
			IsDefaultOutput:   out != nil && d.Index == out.Index,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// findDevice returns the device named name, or the default device when name
// is empty.
func findDevice(name string, input bool) (*pa.DeviceInfo, error) {
	if name == "" {
		if input {
			return pa.DefaultInputDevice()
		}
		return pa.DefaultOutputDevice()
	}
	devices, err := pa.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if !strings.EqualFold(d.Name, name) {
			continue
		}
		if (input && d.MaxInputChannels > 0) || (!input && d.MaxOutputChannels > 0) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device %q not found", name)
}

// deviceError maps a PortAudio failure to the voicecall taxonomy.
func deviceError(op string, err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "not permitted") ||
		strings.Contains(msg, "access denied") || strings.Contains(msg, "not authorized") {
		return fmt.Errorf("%w: %s: %w", voicecall.ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %w", voicecall.ErrDeviceUnavailable, op, err)
}

// transient reports stream errors that do not end the stream.
func transient(err error) bool {
	return errors.Is(err, pa.InputOverflowed) || errors.Is(err, pa.OutputUnderflowed)
}

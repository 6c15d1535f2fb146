// Package portaudio plays a sink session through PortAudio.
//
// The stream is callback driven: PortAudio calls into Go from its audio
// thread with one non-interleaved float32 buffer per channel, which is handed
// straight to the sink render function. The device rate is fixed when the
// stream opens; the sink resamples to it.
//
// Building requires the PortAudio C library (pkg-config portaudio-2.0).
package portaudio

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"
)

// DeviceInfo contains information about an audio device.
type DeviceInfo struct {
	Index                    int
	Name                     string
	HostAPI                  string
	MaxInputChannels         int
	MaxOutputChannels        int
	DefaultLowOutputLatency  time.Duration
	DefaultHighOutputLatency time.Duration
	DefaultSampleRate        float64
	IsDefaultOutput          bool

	dev *portaudio.DeviceInfo
}

// Devices returns the available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	defer portaudio.Terminate()
	return devices()
}

// devices must be called between Initialize and Terminate.
func devices() ([]DeviceInfo, error) {
	all, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("portaudio: list devices: %w", err)
	}
	var defaultName string
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	infos := make([]DeviceInfo, 0, len(all))
	for i, d := range all {
		if d == nil {
			continue
		}
		info := DeviceInfo{
			Index:                    i,
			Name:                     d.Name,
			MaxInputChannels:         d.MaxInputChannels,
			MaxOutputChannels:        d.MaxOutputChannels,
			DefaultLowOutputLatency:  d.DefaultLowOutputLatency,
			DefaultHighOutputLatency: d.DefaultHighOutputLatency,
			DefaultSampleRate:        d.DefaultSampleRate,
			IsDefaultOutput:          d.Name == defaultName,
			dev:                      d,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// PrintDevices writes the output-capable devices to w.
func PrintDevices(w io.Writer) error {
	infos, err := Devices()
	if err != nil {
		return err
	}
	for _, d := range infos {
		if d.MaxOutputChannels == 0 {
			continue
		}
		marker := ""
		if d.IsDefaultOutput {
			marker = " [DEFAULT OUTPUT]"
		}
		fmt.Fprintf(w, "%d: %s (%s)%s\n", d.Index, d.Name, d.HostAPI, marker)
		fmt.Fprintf(w, "   Output channels: %d, default sample rate: %.0f Hz, latency: %v-%v\n",
			d.MaxOutputChannels, d.DefaultSampleRate, d.DefaultLowOutputLatency, d.DefaultHighOutputLatency)
	}
	return nil
}

// selectDevice picks the output for portSpec: empty means the default output,
// a number is a device index, anything else matches a device name by
// case-insensitive substring.
func selectDevice(infos []DeviceInfo, portSpec string) (DeviceInfo, error) {
	portSpec = strings.TrimSpace(portSpec)
	usable := func(d DeviceInfo) bool { return d.MaxOutputChannels >= 2 }

	if portSpec == "" {
		for _, d := range infos {
			if d.IsDefaultOutput && usable(d) {
				return d, nil
			}
		}
		return DeviceInfo{}, fmt.Errorf("portaudio: no default stereo output device")
	}
	if idx, err := strconv.Atoi(portSpec); err == nil {
		for _, d := range infos {
			if d.Index == idx {
				if !usable(d) {
					return DeviceInfo{}, fmt.Errorf("portaudio: device %d (%s) has %d output channels", idx, d.Name, d.MaxOutputChannels)
				}
				return d, nil
			}
		}
		return DeviceInfo{}, fmt.Errorf("portaudio: no device with index %d", idx)
	}
	needle := strings.ToLower(portSpec)
	for _, d := range infos {
		if usable(d) && strings.Contains(strings.ToLower(d.Name), needle) {
			return d, nil
		}
	}
	return DeviceInfo{}, fmt.Errorf("portaudio: no stereo output device matching %q", portSpec)
}

package commands

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/haivivi/pcmsink/pkg/audio/otoout"
	"github.com/haivivi/pcmsink/pkg/audio/portaudio"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
	"github.com/haivivi/pcmsink/pkg/audio/wavout"
	"github.com/haivivi/pcmsink/pkg/cli"
)

const defaultBackend = "portaudio"

// Extra keys read by the backends.
const (
	extraOtoBuffer = "oto_buffer"
	extraWavPeriod = "wav_period"
)

var backends = map[string]func(c *cli.Context) (sink.Device, error){
	"portaudio": func(c *cli.Context) (sink.Device, error) {
		return &portaudio.Output{FramesPerBuffer: c.FramesPerBuffer, SampleRate: c.DeviceRate}, nil
	},
	"oto": func(c *cli.Context) (sink.Device, error) {
		size, err := extraDuration(c, extraOtoBuffer)
		if err != nil {
			return nil, err
		}
		return &otoout.Output{SampleRate: c.DeviceRate, BufferSize: size}, nil
	},
	"wav": func(c *cli.Context) (sink.Device, error) {
		period, err := extraDuration(c, extraWavPeriod)
		if err != nil {
			return nil, err
		}
		return &wavout.Output{SampleRate: c.DeviceRate, Period: period}, nil
	},
}

func backendNames() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// newDevice builds the output device named by the context, or name when
// it is not empty.
func newDevice(c *cli.Context, name string) (sink.Device, error) {
	if name == "" {
		name = c.Backend
	}
	if name == "" {
		name = defaultBackend
	}
	build, ok := backends[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q (have %s)",
			sink.ErrInvalidConfig, name, strings.Join(backendNames(), ", "))
	}
	return build(c)
}

func extraDuration(c *cli.Context, key string) (time.Duration, error) {
	v := c.GetExtra(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %s: bad duration %q", sink.ErrInvalidConfig, key, v)
	}
	return d, nil
}

// defaultRecording returns a fresh path in the data directory for the wav
// backend when no port is configured.
func defaultRecording() (string, error) {
	paths, err := cli.NewPaths(appName)
	if err != nil {
		return "", err
	}
	if err := paths.EnsureDataDir(); err != nil {
		return "", err
	}
	return paths.DataPath(time.Now().Format("20060102-150405") + ".wav"), nil
}

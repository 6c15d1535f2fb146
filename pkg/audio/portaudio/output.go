package portaudio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/haivivi/pcmsink/pkg/audio/sink"
)

var _ sink.Device = (*Output)(nil)

// Output is a stereo PortAudio output stream.
type Output struct {
	// FramesPerBuffer is the callback size; 0 lets PortAudio choose.
	FramesPerBuffer int

	// SampleRate overrides the device default rate when positive.
	SampleRate int

	mu     sync.Mutex
	stream *portaudio.Stream
	render sink.RenderFunc
}

// Name implements sink.Device.
func (o *Output) Name() string { return "portaudio" }

// Help implements sink.Device.
func (o *Output) Help() string {
	return "port: empty for the default output, a device index, or part of a device name (see `pcmsink devices`)"
}

// Open implements sink.Device.
func (o *Output) Open(portSpec string, render sink.RenderFunc) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream != nil {
		return 0, errors.New("portaudio: already open")
	}

	if err := portaudio.Initialize(); err != nil {
		return 0, fmt.Errorf("portaudio: initialize: %w", err)
	}
	stream, rate, err := o.open(portSpec)
	if err != nil {
		portaudio.Terminate()
		return 0, err
	}
	o.render = render
	o.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		o.stream = nil
		return 0, fmt.Errorf("portaudio: start stream: %w", err)
	}
	return rate, nil
}

func (o *Output) open(portSpec string) (*portaudio.Stream, int, error) {
	infos, err := devices()
	if err != nil {
		return nil, 0, err
	}
	dev, err := selectDevice(infos, portSpec)
	if err != nil {
		return nil, 0, err
	}

	params := portaudio.HighLatencyParameters(nil, dev.dev)
	params.Output.Channels = 2
	params.FramesPerBuffer = o.FramesPerBuffer
	if o.SampleRate > 0 {
		params.SampleRate = float64(o.SampleRate)
	}
	stream, err := portaudio.OpenStream(params, o.callback)
	if err != nil {
		return nil, 0, fmt.Errorf("portaudio: open %q: %w", dev.Name, err)
	}
	rate := int(params.SampleRate)
	slog.Info("portaudio: open",
		"device", dev.Name,
		"host_api", dev.HostAPI,
		"sample_rate", rate,
		"frames_per_buffer", o.FramesPerBuffer,
		"latency", params.Output.Latency)
	return stream, rate, nil
}

// callback runs on the PortAudio thread.
func (o *Output) callback(out [][]float32) {
	left, right := out[0], out[1]
	if o.render(left, right) == 0 {
		clear(left)
		clear(right)
	}
}

// Close implements sink.Device.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream == nil {
		return nil
	}
	stream := o.stream
	o.stream = nil

	err := stream.Stop()
	if cerr := stream.Close(); err == nil {
		err = cerr
	}
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	if err != nil {
		return fmt.Errorf("portaudio: close: %w", err)
	}
	return nil
}

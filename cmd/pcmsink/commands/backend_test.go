package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/haivivi/pcmsink/pkg/audio/otoout"
	"github.com/haivivi/pcmsink/pkg/audio/portaudio"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
	"github.com/haivivi/pcmsink/pkg/audio/wavout"
	"github.com/haivivi/pcmsink/pkg/cli"
)

func TestNewDevice(t *testing.T) {
	c := &cli.Context{DeviceRate: 44100, FramesPerBuffer: 512}

	dev, err := newDevice(c, "")
	if err != nil {
		t.Fatalf("newDevice default: %v", err)
	}
	pa, ok := dev.(*portaudio.Output)
	if !ok {
		t.Fatalf("default backend = %T", dev)
	}
	if pa.SampleRate != 44100 || pa.FramesPerBuffer != 512 {
		t.Errorf("portaudio output = %+v", pa)
	}

	c.Backend = "wav"
	c.SetExtra(extraWavPeriod, "20ms")
	dev, err = newDevice(c, "")
	if err != nil {
		t.Fatalf("newDevice wav: %v", err)
	}
	if w, ok := dev.(*wavout.Output); !ok || w.Period != 20*time.Millisecond {
		t.Errorf("wav backend = %T", dev)
	}

	c.SetExtra(extraOtoBuffer, "40ms")
	dev, err = newDevice(c, "OTO")
	if err != nil {
		t.Fatalf("newDevice oto: %v", err)
	}
	if o, ok := dev.(*otoout.Output); !ok || o.BufferSize != 40*time.Millisecond {
		t.Errorf("oto backend = %T", dev)
	}
}

func TestNewDeviceErrors(t *testing.T) {
	tests := []struct {
		name    string
		ctx     *cli.Context
		backend string
	}{
		{"unknown backend", &cli.Context{}, "jack"},
		{"bad oto buffer", &cli.Context{Extra: map[string]string{extraOtoBuffer: "soon"}}, "oto"},
		{"negative wav period", &cli.Context{Extra: map[string]string{extraWavPeriod: "-1s"}}, "wav"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newDevice(tt.ctx, tt.backend)
			if !errors.Is(err, sink.ErrInvalidConfig) {
				t.Errorf("newDevice = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{sink.ErrInvalidConfig, 2},
		{errors.Join(errors.New("start"), sink.ErrDeviceUnavailable), 3},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

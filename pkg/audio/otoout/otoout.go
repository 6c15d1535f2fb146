// Package otoout plays a sink session through github.com/ebitengine/oto/v3.
//
// oto pulls interleaved float32 samples from an io.Reader on its own
// goroutine; the reader renders each request through the sink. oto allows a
// single context per process, so the sample rate of the first Open is kept
// for the life of the process.
package otoout

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
)

// DefaultSampleRate is the device rate used when Output.SampleRate is 0.
const DefaultSampleRate = 48000

var (
	ctxMu   sync.Mutex
	ctx     *oto.Context
	ctxRate int
)

func sharedContext(rate int, bufferSize time.Duration) (*oto.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if ctx != nil {
		if ctxRate != rate {
			return nil, fmt.Errorf("otoout: context already running at %d Hz, cannot switch to %d Hz", ctxRate, rate)
		}
		return ctx, nil
	}
	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("otoout: new context: %w", err)
	}
	<-ready
	ctx, ctxRate = c, rate
	return c, nil
}

var _ sink.Device = (*Output)(nil)

// Output is an oto player fed by a sink render function.
type Output struct {
	// SampleRate is the device rate; 0 means DefaultSampleRate.
	SampleRate int

	// BufferSize is the oto buffer length; 0 lets oto choose.
	BufferSize time.Duration

	mu     sync.Mutex
	player *oto.Player
	src    *source
}

// Name implements sink.Device.
func (o *Output) Name() string { return "oto" }

// Help implements sink.Device.
func (o *Output) Help() string {
	return "port: ignored, oto always plays through the system default output"
}

// Open implements sink.Device.
func (o *Output) Open(portSpec string, render sink.RenderFunc) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		return 0, errors.New("otoout: already open")
	}
	if portSpec != "" {
		slog.Warn("otoout: port spec ignored", "port", portSpec)
	}

	rate := o.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	c, err := sharedContext(rate, o.BufferSize)
	if err != nil {
		return 0, err
	}

	o.src = &source{render: render}
	o.player = c.NewPlayer(o.src)
	o.player.Play()
	slog.Info("otoout: open", "sample_rate", rate, "buffer_size", o.BufferSize)
	return rate, nil
}

// Close implements sink.Device. The oto context stays alive.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	o.src.closed.Store(true)
	err := o.player.Close()
	o.player, o.src = nil, nil
	if err != nil {
		return fmt.Errorf("otoout: close player: %w", err)
	}
	return nil
}

// source adapts a render function to the io.Reader oto pulls from.
type source struct {
	render      sink.RenderFunc
	closed      atomic.Bool
	left, right []float32
}

// Read renders len(p)/8 frames. It never blocks and reports silence on
// underrun so the player keeps running.
func (s *source) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	if s.closed.Load() {
		clear(p[:frames*8])
		return frames * 8, nil
	}
	if cap(s.left) < frames {
		s.left = make([]float32, frames)
		s.right = make([]float32, frames)
	}
	left, right := s.left[:frames], s.right[:frames]
	if s.render(left, right) == 0 {
		clear(left)
		clear(right)
	}
	return pcm.InterleaveFloat32LE(p, left, right), nil
}

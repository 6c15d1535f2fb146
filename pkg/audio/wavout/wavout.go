// Package wavout is a sink device that records to a WAV file instead of a
// sound card. A ticker stands in for the hardware clock: every Period it
// renders Period worth of frames at SampleRate, and writes silence when the
// sink has nothing to give, just as a sound card would play it.
package wavout

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/haivivi/pcmsink/pkg/audio/codec/wav"
	"github.com/haivivi/pcmsink/pkg/audio/pcm"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
)

const (
	DefaultSampleRate = 48000
	DefaultPeriod     = 10 * time.Millisecond
)

var _ sink.Device = (*Output)(nil)

// Output writes rendered audio to the file named by the port spec.
type Output struct {
	SampleRate int
	Period     time.Duration

	mu     sync.Mutex
	file   *os.File
	w      *wav.Writer
	render sink.RenderFunc
	stop   chan struct{}
	done   chan struct{}

	left, right []float32
	samples     []int16
	frames      atomic.Int64
}

// Name implements sink.Device.
func (o *Output) Name() string { return "wav" }

// Help implements sink.Device.
func (o *Output) Help() string {
	return "port: path of the WAV file to write (16-bit stereo at the device rate)"
}

// Open implements sink.Device.
func (o *Output) Open(portSpec string, render sink.RenderFunc) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file != nil {
		return 0, errors.New("wavout: already open")
	}
	if portSpec == "" {
		return 0, errors.New("wavout: port must name an output file")
	}

	rate := o.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	period := o.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	n := int(pcm.Stereo(rate).FramesInDuration(period))
	if n <= 0 {
		return 0, fmt.Errorf("wavout: period %v too short at %d Hz", period, rate)
	}

	f, err := os.Create(portSpec)
	if err != nil {
		return 0, fmt.Errorf("wavout: %w", err)
	}
	o.file = f
	o.w = wav.NewWriter(f, rate)
	o.render = render
	o.left = make([]float32, n)
	o.right = make([]float32, n)
	o.samples = make([]int16, 2*n)
	o.frames.Store(0)
	o.stop = make(chan struct{})
	o.done = make(chan struct{})

	go o.run(period)
	slog.Info("wavout: open", "path", portSpec, "sample_rate", rate, "period", period)
	return rate, nil
}

func (o *Output) run(period time.Duration) {
	defer close(o.done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-o.stop:
			return
		case <-ticker.C:
			if err := o.step(); err != nil {
				slog.Error("wavout: write failed", "error", err)
				return
			}
		}
	}
}

// step renders and writes one period. Only the clock goroutine calls it.
func (o *Output) step() error {
	if o.render(o.left, o.right) == 0 {
		clear(o.left)
		clear(o.right)
	}
	n := pcm.InterleaveInt16(o.samples, o.left, o.right)
	if err := o.w.WriteSamples(o.samples[:2*n]); err != nil {
		return err
	}
	o.frames.Add(int64(n))
	return nil
}

// Frames returns the number of frames written since Open.
func (o *Output) Frames() int64 {
	return o.frames.Load()
}

// Close implements sink.Device. It stops the clock and finalizes the file.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.file == nil {
		return nil
	}
	close(o.stop)
	<-o.done

	err := o.w.Close()
	if cerr := o.file.Close(); err == nil {
		err = cerr
	}
	slog.Info("wavout: close", "path", o.file.Name(), "frames", o.frames.Load())
	o.file, o.w = nil, nil
	if err != nil {
		return fmt.Errorf("wavout: %w", err)
	}
	return nil
}

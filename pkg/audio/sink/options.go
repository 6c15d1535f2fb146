package sink

import (
	"fmt"

	"github.com/haivivi/pcmsink/pkg/audio/resampler"
)

const (
	// DefaultBufferDesiredLength is one second at 44.1kHz.
	DefaultBufferDesiredLength = 44100

	// MaxBufferDesiredLength is three seconds at 44.1kHz.
	MaxBufferDesiredLength = 132300

	// MaxLatencyOffset bounds the latency offset in both directions.
	MaxLatencyOffset = 66150

	// BufferSizeFactor is the ring capacity in seconds of source audio.
	BufferSizeFactor = 1
)

// Options configures a Driver. They are fixed for the lifetime of a
// session.
type Options struct {
	// PortSpec selects the output device or port; its meaning is up to the
	// Device.
	PortSpec string

	// BufferDesiredLength is the desired backend buffer length in frames,
	// within [0, MaxBufferDesiredLength].
	BufferDesiredLength int

	// LatencyOffset in frames, within [-MaxLatencyOffset, MaxLatencyOffset].
	// It is passed through to the session layer unchanged.
	LatencyOffset int

	// ResampleMode and Quality select the per-channel converters.
	ResampleMode resampler.Mode
	Quality      resampler.Quality

	// NewConverter overrides converter construction. It is called twice per
	// session, once per channel.
	NewConverter func(srcRate, dstRate int) (resampler.Converter, error)
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		BufferDesiredLength: DefaultBufferDesiredLength,
		ResampleMode:        resampler.ModeOneShot,
		Quality:             resampler.QualityHigh,
	}
}

// Validate checks the ranges of the numeric options.
func (o Options) Validate() error {
	if o.BufferDesiredLength < 0 || o.BufferDesiredLength > MaxBufferDesiredLength {
		return fmt.Errorf("%w: buffer desired length %d, should be between 0 and %d",
			ErrInvalidConfig, o.BufferDesiredLength, MaxBufferDesiredLength)
	}
	if o.LatencyOffset < -MaxLatencyOffset || o.LatencyOffset > MaxLatencyOffset {
		return fmt.Errorf("%w: latency offset %d, should be between %d and %d",
			ErrInvalidConfig, o.LatencyOffset, -MaxLatencyOffset, MaxLatencyOffset)
	}
	return nil
}

func (o Options) converter(srcRate, dstRate int) (resampler.Converter, error) {
	if o.NewConverter != nil {
		return o.NewConverter(srcRate, dstRate)
	}
	return resampler.New(o.ResampleMode, srcRate, dstRate, o.Quality)
}

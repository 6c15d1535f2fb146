package pcm

import (
	"errors"
	"fmt"
	"time"
)

// Depth is the bit depth of every format handled by this package.
const Depth = 16

// ErrInvalidFormat is returned for formats with a non-positive sample rate or
// an unsupported channel count.
var ErrInvalidFormat = errors.New("pcm: invalid format")

// Format describes a 16-bit little-endian interleaved PCM stream.
type Format struct {
	// SampleRate is the sample rate in Hz (e.g., 44100, 48000).
	SampleRate int

	// Channels is 1 for mono or 2 for stereo.
	Channels int
}

// Stereo returns the 16-bit stereo format at the given rate.
func Stereo(rate int) Format {
	return Format{SampleRate: rate, Channels: 2}
}

// Mono returns the 16-bit mono format at the given rate.
func Mono(rate int) Format {
	return Format{SampleRate: rate, Channels: 1}
}

// Validate reports whether the format can be streamed.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, f.Channels)
	}
	return nil
}

// FrameBytes returns the size of one frame in bytes.
func (f Format) FrameBytes() int {
	return f.Channels * Depth / 8
}

// Frames returns the number of whole frames in the given number of bytes.
func (f Format) Frames(bytes int64) int64 {
	return bytes / int64(f.FrameBytes())
}

// FramesInDuration returns the number of frames in the given duration.
func (f Format) FramesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.FramesInDuration(d) * int64(f.FrameBytes())
}

// Duration returns the duration of the given number of frames.
func (f Format) Duration(frames int64) time.Duration {
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate * f.FrameBytes()
}

// String returns the media type of the format.
func (f Format) String() string {
	return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.SampleRate, f.Channels)
}

// Package mp3 decodes MPEG-1/2 Layer III with github.com/hajimehoshi/go-mp3.
// go-mp3 always produces 16-bit little-endian stereo, which is passed through
// frame-aligned.
package mp3

import (
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
)

// decoder is the part of gomp3.Decoder the stream uses.
type decoder interface {
	io.Reader
	SampleRate() int
}

// Stream is a decoded MP3 file.
type Stream struct {
	r    io.Reader
	fr   *pcm.FrameReader
	rate int
}

// NewStream reads the first frame header of r.
func NewStream(r io.Reader) (*Stream, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return newStream(r, dec), nil
}

func newStream(r io.Reader, dec decoder) *Stream {
	return &Stream{
		r:    r,
		fr:   pcm.NewFrameReader(dec, pcm.Stereo(dec.SampleRate())),
		rate: dec.SampleRate(),
	}
}

// SampleRate returns the sample rate of the first frame.
func (s *Stream) SampleRate() int { return s.rate }

// Read fills p with whole stereo frames.
func (s *Stream) Read(p []byte) (int, error) {
	return s.fr.Read(p)
}

// Close closes the underlying reader if it is an io.Closer.
func (s *Stream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

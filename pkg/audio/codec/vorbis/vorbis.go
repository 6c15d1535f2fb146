// Package vorbis decodes Ogg Vorbis with github.com/jfreymuth/oggvorbis.
package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
)

// decoder is the part of oggvorbis.Reader the stream uses. Read returns the
// number of values decoded, always a multiple of Channels.
type decoder interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

// Stream converts decoded float samples to 16-bit stereo. Mono is
// duplicated; channels beyond the second are dropped.
type Stream struct {
	r        io.Reader
	dec      decoder
	channels int
	buf      []float32
}

// NewStream reads the Vorbis headers from r.
func NewStream(r io.Reader) (*Stream, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}
	return newStream(r, dec)
}

func newStream(r io.Reader, dec decoder) (*Stream, error) {
	if dec.Channels() < 1 {
		return nil, fmt.Errorf("vorbis: %d channels", dec.Channels())
	}
	return &Stream{r: r, dec: dec, channels: dec.Channels()}, nil
}

// SampleRate returns the stream's sample rate.
func (s *Stream) SampleRate() int { return s.dec.SampleRate() }

// Read fills p with whole stereo frames.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	need := frames * s.channels
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}
	n, err := s.dec.Read(s.buf[:need])
	got := n / s.channels
	for i := range got {
		l := pcm.Float32ToInt16(s.buf[i*s.channels])
		r := l
		if s.channels > 1 {
			r = pcm.Float32ToInt16(s.buf[i*s.channels+1])
		}
		p[i*4], p[i*4+1] = byte(l), byte(l>>8)
		p[i*4+2], p[i*4+3] = byte(r), byte(r>>8)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return got * 4, fmt.Errorf("vorbis: decode: %w", err)
	}
	return got * 4, err
}

// Close closes the underlying reader if it is an io.Closer.
func (s *Stream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

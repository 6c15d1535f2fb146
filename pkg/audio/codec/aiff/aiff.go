// Package aiff decodes uncompressed AIFF files with github.com/go-audio/aiff.
package aiff

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
)

var (
	// ErrInvalidFile is returned for input that is not a FORM/AIFF file.
	ErrInvalidFile = errors.New("aiff: invalid file")

	// ErrUnsupported is returned for unsupported bit depths and more than
	// two channels.
	ErrUnsupported = errors.New("aiff: unsupported format")
)

// pcmReader is the part of aiff.Decoder the stream reads from.
type pcmReader interface {
	PCMBuffer(buf *audio.IntBuffer) (int, error)
}

// Stream decodes an AIFF file to 16-bit stereo PCM.
type Stream struct {
	r        io.Reader
	dec      pcmReader
	rate     int
	channels int
	depth    int
	buf      *audio.IntBuffer
}

// NewStream parses the AIFF header of r. 8, 16, 24 and 32-bit PCM with one
// or two channels is accepted.
func NewStream(r io.ReadSeeker) (*Stream, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	f := dec.Format()
	if f == nil {
		return nil, ErrInvalidFile
	}
	return newStream(r, dec, f, int(dec.BitDepth))
}

func newStream(r io.Reader, dec pcmReader, f *audio.Format, depth int) (*Stream, error) {
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit", ErrUnsupported, depth)
	}
	if f.NumChannels < 1 || f.NumChannels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupported, f.NumChannels)
	}
	if f.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFile, f.SampleRate)
	}
	return &Stream{
		r:        r,
		dec:      dec,
		rate:     f.SampleRate,
		channels: f.NumChannels,
		depth:    depth,
		buf:      &audio.IntBuffer{Format: f, SourceBitDepth: depth},
	}, nil
}

// SampleRate returns the file's sample rate.
func (s *Stream) SampleRate() int { return s.rate }

// Channels returns the channel count stored in the file.
func (s *Stream) Channels() int { return s.channels }

// Read fills p with whole stereo frames.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	need := frames * s.channels
	if cap(s.buf.Data) < need {
		s.buf.Data = make([]int, need)
	}
	s.buf.Data = s.buf.Data[:need]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("aiff: decode: %w", err)
	}
	got := n / s.channels
	if got == 0 {
		return 0, io.EOF
	}
	for i := range got {
		l := s.sample(s.buf.Data[i*s.channels])
		r := l
		if s.channels == 2 {
			r = s.sample(s.buf.Data[i*2+1])
		}
		p[i*4], p[i*4+1] = byte(l), byte(l>>8)
		p[i*4+2], p[i*4+3] = byte(r), byte(r>>8)
	}
	return got * 4, nil
}

// sample scales a decoded value to 16 bits. AIFF samples are signed at
// every depth.
func (s *Stream) sample(v int) int16 {
	switch s.depth {
	case 8:
		return int16(v << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	}
	return int16(v)
}

// Close closes the underlying reader if it is an io.Closer.
func (s *Stream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Package wav reads and writes PCM WAV files with github.com/go-audio/wav.
package wav

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
)

var (
	// ErrInvalidFile is returned for input that is not a RIFF/WAVE file.
	ErrInvalidFile = errors.New("wav: invalid file")

	// ErrUnsupported is returned for non-PCM data, unsupported bit depths
	// and more than two channels.
	ErrUnsupported = errors.New("wav: unsupported format")
)

const waveFormatPCM = 1

// Stream decodes a WAV file to 16-bit stereo PCM.
type Stream struct {
	r        io.ReadSeeker
	dec      *wav.Decoder
	rate     int
	channels int
	depth    int
	buf      *audio.IntBuffer
}

// NewStream parses the WAV header of r. 8, 16, 24 and 32-bit integer PCM
// with one or two channels is accepted.
func NewStream(r io.ReadSeeker) (*Stream, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
		}
		return nil, ErrInvalidFile
	}
	if dec.WavAudioFormat != waveFormatPCM {
		return nil, fmt.Errorf("%w: audio format %d", ErrUnsupported, dec.WavAudioFormat)
	}
	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d-bit", ErrUnsupported, depth)
	}
	f := dec.Format()
	if f.NumChannels < 1 || f.NumChannels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupported, f.NumChannels)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("wav: seek to data: %w", err)
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
		return 0, fmt.Errorf("wav: decode: %w", err)
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

// sample scales a decoded value to 16 bits.
func (s *Stream) sample(v int) int16 {
	switch s.depth {
	case 8:
		// 8-bit WAV is unsigned; go-audio hands back the raw byte.
		return int16((v - 128) << 8)
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

// Writer encodes 16-bit stereo PCM to a WAV file. The header is finalized by
// Close.
type Writer struct {
	enc *wav.Encoder
	buf *audio.IntBuffer
}

// NewWriter starts a 16-bit stereo WAV at rate on ws.
func NewWriter(ws io.WriteSeeker, rate int) *Writer {
	return &Writer{
		enc: wav.NewEncoder(ws, rate, pcm.Depth, 2, waveFormatPCM),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: rate},
			SourceBitDepth: pcm.Depth,
		},
	}
}

// WriteSamples appends interleaved stereo samples.
func (w *Writer) WriteSamples(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, v := range samples {
		w.buf.Data[i] = int(v)
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav: encode: %w", err)
	}
	return nil
}

// Close writes the final header sizes. It does not close the underlying
// writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wav: close: %w", err)
	}
	return nil
}

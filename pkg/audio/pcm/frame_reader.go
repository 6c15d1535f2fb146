package pcm

import "io"

// FrameReader wraps an io.Reader and ensures each Read returns a multiple of
// the frame size. Partial frames are held back until the rest arrives, which
// is what network sources deliver under jitter.
type FrameReader struct {
	// holds leftover bytes (up to frameSize-1)
	buffer []byte

	// number of valid bytes in buffer
	buffered int

	frameSize int

	r io.Reader
}

// NewFrameReader creates a FrameReader for the given format.
func NewFrameReader(r io.Reader, f Format) *FrameReader {
	size := f.FrameBytes()
	return &FrameReader{
		buffer:    make([]byte, size-1),
		frameSize: size,
		r:         r,
	}
}

// FrameSize returns the size of one frame in bytes.
func (fr *FrameReader) FrameSize() int {
	return fr.frameSize
}

// Read reads data into p, returning 0 or a multiple of the frame size.
// Returns io.ErrShortBuffer if len(p) is smaller than one frame. A stream
// ending in the middle of a frame returns io.ErrUnexpectedEOF along with the
// incomplete bytes.
func (fr *FrameReader) Read(p []byte) (n int, err error) {
	if len(p) < fr.frameSize {
		return 0, io.ErrShortBuffer
	}

	p = p[:len(p)/fr.frameSize*fr.frameSize]
	if fr.buffered > 0 {
		n = copy(p, fr.buffer[:fr.buffered])
		fr.buffered = 0
	}

	rn, err := fr.r.Read(p[n:])
	n += rn
	if err != nil {
		if n%fr.frameSize != 0 && err == io.EOF {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if mod := n % fr.frameSize; mod != 0 {
		n -= mod
		copy(fr.buffer[:mod], p[n:n+mod])
		fr.buffered = mod
	}
	return n, nil
}

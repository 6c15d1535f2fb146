package pcm

import "io"

// MonoToStereoReader reads 16-bit mono from r and returns it as stereo with
// each sample duplicated.
type MonoToStereoReader struct {
	fr *FrameReader
}

// NewMonoToStereoReader wraps r.
func NewMonoToStereoReader(r io.Reader) *MonoToStereoReader {
	return &MonoToStereoReader{fr: NewFrameReader(r, Mono(0))}
}

// Read fills p with whole stereo frames. len(p) must be at least 4.
func (m *MonoToStereoReader) Read(p []byte) (int, error) {
	frames := len(p) / 4
	if frames == 0 {
		return 0, io.ErrShortBuffer
	}
	n, err := m.fr.Read(p[:frames*2])
	n -= n % 2
	MonoToStereo(p[:n*2])
	return n * 2, err
}

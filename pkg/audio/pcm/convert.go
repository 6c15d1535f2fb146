package pcm

import (
	"encoding/binary"
	"math"
)

// DecodeL16 decodes little-endian 16-bit samples from src into dst and returns
// the number of samples decoded. A trailing odd byte is ignored.
func DecodeL16(dst []int16, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}
	return n
}

// EncodeL16 encodes samples into dst as little-endian 16-bit and returns the
// number of bytes written.
func EncodeL16(dst []byte, src []int16) int {
	n := min(len(dst)/2, len(src))
	for i := range n {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(src[i]))
	}
	return n * 2
}

// Int16ToFloat32 normalizes a sample to [-1, 1] by dividing by the largest
// positive sample value. The one extra negative value is clamped to -1.
func Int16ToFloat32(s int16) float32 {
	v := float32(s) / math.MaxInt16
	if v < -1 {
		return -1
	}
	return v
}

// Float32ToInt16 converts a normalized sample back to 16 bits, clipping
// values outside [-1, 1].
func Float32ToInt16(v float32) int16 {
	switch {
	case v >= 1:
		return math.MaxInt16
	case v <= -1:
		return -math.MaxInt16
	}
	return int16(v * math.MaxInt16)
}

// DeinterleaveFloat32 splits interleaved stereo samples into normalized left
// and right channels. It returns the number of frames converted, limited by
// the shorter of the destinations and len(src)/2.
func DeinterleaveFloat32(left, right []float32, src []int16) int {
	n := min(len(left), len(right), len(src)/2)
	for i := range n {
		left[i] = Int16ToFloat32(src[i*2])
		right[i] = Int16ToFloat32(src[i*2+1])
	}
	return n
}

// MonoToStereo converts mono 16-bit samples to stereo in-place by duplicating
// each sample. The mono data occupies the first half of b; len(b) must be a
// multiple of 4. It returns len(b).
func MonoToStereo(b []byte) int {
	stereoLen := len(b)
	numSamples := stereoLen / 4
	for i := numSamples - 1; i >= 0; i-- {
		s0, s1 := b[i*2], b[i*2+1]
		j := i * 4
		b[j], b[j+1] = s0, s1
		b[j+2], b[j+3] = s0, s1
	}
	return stereoLen
}

// InterleaveFloat32LE writes left and right as interleaved little-endian
// float32 frames into dst and returns the number of bytes written.
func InterleaveFloat32LE(dst []byte, left, right []float32) int {
	n := min(len(left), len(right), len(dst)/8)
	for i := range n {
		binary.LittleEndian.PutUint32(dst[i*8:], math.Float32bits(left[i]))
		binary.LittleEndian.PutUint32(dst[i*8+4:], math.Float32bits(right[i]))
	}
	return n * 8
}

// InterleaveInt16 converts left and right to interleaved 16-bit samples in
// dst and returns the number of frames written.
func InterleaveInt16(dst []int16, left, right []float32) int {
	n := min(len(left), len(right), len(dst)/2)
	for i := range n {
		dst[i*2] = Float32ToInt16(left[i])
		dst[i*2+1] = Float32ToInt16(right[i])
	}
	return n
}

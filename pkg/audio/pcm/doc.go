// Package pcm provides types and utilities for working with 16-bit linear PCM
// (audio/L16) streams.
//
// Key types and helpers:
//   - Format: sample rate and channel count of an L16 stream
//   - FrameReader: an io.Reader adapter that only returns whole frames
//   - DecodeL16, DeinterleaveFloat32, MonoToStereo: sample conversions
//
// Example usage:
//
//	format := pcm.Stereo(44100)
//
//	// Bytes needed for 20ms of audio
//	n := format.BytesInDuration(20 * time.Millisecond)
//
//	// Read frame-aligned blocks from a network connection
//	fr := pcm.NewFrameReader(conn, format)
//	buf := make([]byte, n)
//	n, err := fr.Read(buf)
package pcm

// Package buffer provides the sample buffer that sits between a streaming
// audio producer and a real-time consumer.
//
// Stereo is a fixed-capacity circular store of two float32 channels with
// independent read and write cursors. It is designed for exactly one producer
// goroutine and one consumer (typically an audio device callback):
//
//   - Write and Free are called by the producer only.
//   - Read and Available are called by the consumer only.
//
// Neither side ever blocks on the other. The cursors are atomic frame
// counters, so a buffer that is completely full and one that is completely
// empty are distinguishable without reserving a slot: Available reports
// write-read and Free reports Cap-Available.
//
// A write that does not fit is rejected as a whole with ErrOverrun, and a
// read that asks for more than is buffered is rejected with ErrUnderrun; in
// both cases nothing is copied and no cursor moves. Partial transfers would
// misalign the two channels.
//
// Example usage:
//
//	rb := buffer.NewStereo(44100)
//
//	// producer
//	if err := rb.Write(left, right); errors.Is(err, buffer.ErrOverrun) {
//	    // drop the block
//	}
//
//	// consumer
//	if err := rb.Read(l, r); errors.Is(err, buffer.ErrUnderrun) {
//	    // emit silence
//	}
package buffer

package buffer

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrOverrun is returned by Write when the block does not fit in the free
	// space of the buffer.
	ErrOverrun = errors.New("buffer: overrun")

	// ErrUnderrun is returned by Read when fewer frames are buffered than
	// requested.
	ErrUnderrun = errors.New("buffer: underrun")

	// ErrChannelMismatch is returned when the left and right slices passed to
	// Read or Write have different lengths.
	ErrChannelMismatch = errors.New("buffer: channel length mismatch")
)

// Stereo is a lock-free single-producer, single-consumer ring of stereo
// frames. Each channel is stored in its own slice of Cap() float32 samples.
//
// The cursors are monotonically increasing frame counters. The storage index
// of a cursor is counter % Cap(), which is what WritePos and ReadPos report.
// The producer stores the write counter only after the samples are copied and
// the consumer stores the read counter only after the samples are copied out,
// so each side observes fully written data.
type Stereo struct {
	// Producer and consumer cursors live on separate cache lines.
	write atomic.Uint64
	_     [56]byte
	read  atomic.Uint64
	_     [56]byte

	left, right []float32
}

// NewStereo creates a Stereo buffer holding capacity frames.
func NewStereo(capacity int) *Stereo {
	rb := &Stereo{}
	rb.Allocate(capacity)
	return rb
}

// Allocate replaces the storage with capacity zeroed frames and resets both
// cursors to 0. It must not be called while Read or Write may run.
func (rb *Stereo) Allocate(capacity int) {
	if capacity < 0 {
		capacity = 0
	}
	rb.left = make([]float32, capacity)
	rb.right = make([]float32, capacity)
	rb.write.Store(0)
	rb.read.Store(0)
}

// Cap returns the capacity in frames.
func (rb *Stereo) Cap() int {
	return len(rb.left)
}

// Available returns the number of frames that can be read.
func (rb *Stereo) Available() int {
	return int(rb.write.Load() - rb.read.Load())
}

// Free returns the number of frames that can be written.
func (rb *Stereo) Free() int {
	return len(rb.left) - rb.Available()
}

// WritePos returns the storage index the next written frame goes to.
func (rb *Stereo) WritePos() int {
	return rb.index(rb.write.Load())
}

// ReadPos returns the storage index of the next frame to be read.
func (rb *Stereo) ReadPos() int {
	return rb.index(rb.read.Load())
}

func (rb *Stereo) index(cursor uint64) int {
	if len(rb.left) == 0 {
		return 0
	}
	return int(cursor % uint64(len(rb.left)))
}

// Write copies len(left) frames into the buffer at the write cursor. The
// whole block is rejected with ErrOverrun when it does not fit.
//
// Write must only be called from the producer.
func (rb *Stereo) Write(left, right []float32) error {
	if len(left) != len(right) {
		return ErrChannelMismatch
	}
	n := len(left)
	if n == 0 {
		return nil
	}

	w := rb.write.Load()
	r := rb.read.Load()
	if n > len(rb.left)-int(w-r) {
		return ErrOverrun
	}

	pos := rb.index(w)
	head := copy(rb.left[pos:], left)
	copy(rb.right[pos:], right[:head])
	if head < n {
		// The block straddles the end of storage; the tail goes to index 0.
		copy(rb.left, left[head:])
		copy(rb.right, right[head:])
	}

	rb.write.Store(w + uint64(n))
	return nil
}

// Read copies len(left) frames from the read cursor into left and right.
// When fewer frames are available it returns ErrUnderrun and leaves both
// destination slices untouched.
//
// Read must only be called from the consumer.
func (rb *Stereo) Read(left, right []float32) error {
	if len(left) != len(right) {
		return ErrChannelMismatch
	}
	n := len(left)
	if n == 0 {
		return nil
	}

	r := rb.read.Load()
	w := rb.write.Load()
	if n > int(w-r) {
		return ErrUnderrun
	}

	pos := rb.index(r)
	head := copy(left, rb.left[pos:])
	copy(right[:head], rb.right[pos:])
	if head < n {
		copy(left[head:], rb.left)
		copy(right[head:], rb.right)
	}

	rb.read.Store(r + uint64(n))
	return nil
}

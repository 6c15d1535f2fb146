package sink

import (
	"errors"

	"github.com/haivivi/pcmsink/pkg/buffer"
)

var (
	// ErrNotStarted is returned by Feed when no session is active.
	ErrNotStarted = errors.New("sink: not started")

	// ErrOddSamples is returned by Feed when the sample count is not a whole
	// number of stereo frames.
	ErrOddSamples = errors.New("sink: odd number of interleaved samples")

	// ErrInvalidConfig marks configuration errors. They are fatal: no
	// session may start.
	ErrInvalidConfig = errors.New("sink: invalid config")

	// ErrDeviceUnavailable marks failures to open or connect the output
	// device. They are fatal at startup.
	ErrDeviceUnavailable = errors.New("sink: device unavailable")

	// ErrActive is returned by Init while a session is running.
	ErrActive = errors.New("sink: session active")

	// ErrBlockTooLarge is returned by Pump when a block can never fit in the
	// buffer.
	ErrBlockTooLarge = errors.New("sink: block larger than buffer")

	// ErrOverrun is returned by Feed when the block was dropped because the
	// buffer had no room for it.
	ErrOverrun = buffer.ErrOverrun
)

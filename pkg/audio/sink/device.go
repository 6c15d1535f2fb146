package sink

// RenderFunc fills left and right with len(left) frames at the device rate
// and returns the number of frames of audio written. A return of 0 means the
// buffers were not touched; the device must treat them as silence.
type RenderFunc func(left, right []float32) int

// Device is the output side of a session: it owns the audio clock and calls
// render from its real-time context.
type Device interface {
	// Name identifies the device type, e.g. "portaudio".
	Name() string

	// Help describes how PortSpec is interpreted.
	Help() string

	// Open connects to the output selected by portSpec, starts calling
	// render and returns the fixed target sample rate.
	Open(portSpec string, render RenderFunc) (targetRate int, err error)

	// Close stops the clock and releases the device.
	Close() error
}

// Backend is the capability set an output driver offers to the player:
// lifecycle hooks plus the stream entry points.
type Backend interface {
	Name() string
	Help() string
	Init(Options) error
	Deinit() error
	Start(sourceRate int) error
	Stop() error
	Play(samples []int16) error
}

var _ Backend = (*Driver)(nil)

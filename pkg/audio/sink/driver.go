package sink

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
	"github.com/haivivi/pcmsink/pkg/audio/resampler"
	"github.com/haivivi/pcmsink/pkg/buffer"
)

// State is the lifecycle state of a Driver.
type State int

const (
	// StateIdle means no session: Feed fails and Render emits nothing.
	StateIdle State = iota
	// StateActive means a session is streaming.
	StateActive
)

// String returns "idle" or "active".
func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// session is everything that lives from one Start to the next Start or Stop.
// Render and Feed load it once per call, so a concurrent Start never changes
// the buffer under them.
type session struct {
	id         string
	sourceRate int
	targetRate int

	ring *buffer.Stereo

	// consumer side
	convL, convR resampler.Converter
	readL, readR []float32
	tick         atomic.Int64 // source frames the last render asked for

	// producer side
	feedL, feedR []float32
}

// Driver connects a feeder to a Device through a stereo ring and per-channel
// resampling. The zero value is not usable; use NewDriver.
type Driver struct {
	device Device

	// mu serializes lifecycle calls. Feed and Render never take it.
	mu         sync.Mutex
	opts       Options
	opened     bool
	targetRate int

	sess  atomic.Pointer[session]
	stats counters
}

// NewDriver creates an idle Driver for dev with DefaultOptions.
func NewDriver(dev Device) *Driver {
	return &Driver{
		device: dev,
		opts:   DefaultOptions(),
	}
}

// Name returns the device name.
func (d *Driver) Name() string {
	return d.device.Name()
}

// Help describes the device's port specification.
func (d *Driver) Help() string {
	return d.device.Help()
}

// Init validates and stores opts. Invalid options yield ErrInvalidConfig.
// Options cannot change while a session is active.
func (d *Driver) Init(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess.Load() != nil {
		return ErrActive
	}
	d.opts = opts
	slog.Debug("sink: init",
		"device", d.device.Name(),
		"port", opts.PortSpec,
		"buffer_desired_length", opts.BufferDesiredLength,
		"latency_offset", opts.LatencyOffset,
		"resample_mode", opts.ResampleMode,
		"quality", opts.Quality)
	return nil
}

// Options returns the options the Driver was initialized with.
func (d *Driver) Options() Options {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opts
}

// Start begins a session for a stream at sourceRate. The device is opened
// on the first Start and reused afterwards. Starting while active discards
// all buffered audio and begins again with empty buffers.
func (d *Driver) Start(sourceRate int) error {
	if sourceRate <= 0 {
		return fmt.Errorf("%w: source rate %d", ErrInvalidConfig, sourceRate)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.opened {
		rate, err := d.device.Open(d.opts.PortSpec, d.Render)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, d.device.Name(), err)
		}
		if rate <= 0 {
			_ = d.device.Close()
			return fmt.Errorf("%w: %s: target rate %d", ErrDeviceUnavailable, d.device.Name(), rate)
		}
		d.opened = true
		d.targetRate = rate
	}

	s, err := d.newSession(sourceRate)
	if err != nil {
		return err
	}
	if old := d.sess.Swap(s); old != nil {
		slog.Debug("sink: discard session", "session", old.id, "buffered", old.ring.Available())
	}
	slog.Info("sink: start",
		"session", s.id,
		"source_rate", s.sourceRate,
		"target_rate", s.targetRate,
		"capacity", s.ring.Cap())
	return nil
}

func (d *Driver) newSession(sourceRate int) (*session, error) {
	convL, err := d.opts.converter(sourceRate, d.targetRate)
	if err != nil {
		return nil, fmt.Errorf("sink: left converter: %w", err)
	}
	convR, err := d.opts.converter(sourceRate, d.targetRate)
	if err != nil {
		return nil, fmt.Errorf("sink: right converter: %w", err)
	}

	capacity := sourceRate * BufferSizeFactor
	return &session{
		id:         uuid.NewString(),
		sourceRate: sourceRate,
		targetRate: d.targetRate,
		ring:       buffer.NewStereo(capacity),
		convL:      convL,
		convR:      convR,
		readL:      make([]float32, capacity),
		readR:      make([]float32, capacity),
	}, nil
}

// Stop ends the session. Buffered audio is discarded; the device stays open
// for the next Start.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if old := d.sess.Swap(nil); old != nil {
		slog.Info("sink: stop", "session", old.id, "buffered", old.ring.Available())
	}
	return nil
}

// Deinit stops the session and closes the device.
func (d *Driver) Deinit() error {
	if err := d.Stop(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.opened {
		return nil
	}
	d.opened = false
	d.targetRate = 0
	if err := d.device.Close(); err != nil {
		return fmt.Errorf("sink: close %s: %w", d.device.Name(), err)
	}
	return nil
}

// State returns the lifecycle state.
func (d *Driver) State() State {
	if d.sess.Load() != nil {
		return StateActive
	}
	return StateIdle
}

// Play implements Backend; it is Feed.
func (d *Driver) Play(samples []int16) error {
	return d.Feed(samples)
}

// Feed appends interleaved stereo samples to the session buffer. A block that
// does not fit is dropped entirely and ErrOverrun is returned; streaming
// continues with the next block.
//
// Feed must be called from one goroutine at a time.
func (d *Driver) Feed(samples []int16) error {
	s := d.sess.Load()
	if s == nil {
		return ErrNotStarted
	}
	if len(samples)%2 != 0 {
		return ErrOddSamples
	}
	frames := len(samples) / 2
	if frames == 0 {
		return nil
	}

	if free := s.ring.Free(); frames > free {
		d.overrun(s, frames, free)
		return ErrOverrun
	}

	if cap(s.feedL) < frames {
		s.feedL = make([]float32, frames)
		s.feedR = make([]float32, frames)
	}
	left, right := s.feedL[:frames], s.feedR[:frames]
	pcm.DeinterleaveFloat32(left, right, samples)

	if err := s.ring.Write(left, right); err != nil {
		if errors.Is(err, buffer.ErrOverrun) {
			d.overrun(s, frames, s.ring.Free())
		}
		return err
	}
	d.stats.fed.Add(uint64(frames))
	return nil
}

func (d *Driver) overrun(s *session, frames, free int) {
	d.stats.overruns.Add(1)
	d.stats.dropped.Add(uint64(frames))
	slog.Debug("sink: buffer overrun",
		"session", s.id,
		"frames", frames,
		"free", free,
		"write_pos", s.ring.WritePos(),
		"read_pos", s.ring.ReadPos())
}

// Render fills left and right with len(left) frames at the target rate and
// returns the number of frames of audio produced. When the buffer holds too
// few frames it returns 0, leaves left and right untouched and does not
// consume anything. Frames the converter could not produce are zeroed.
//
// Render is the device callback: it does not block, log or allocate.
func (d *Driver) Render(left, right []float32) int {
	s := d.sess.Load()
	if s == nil {
		return 0
	}
	requested := min(len(left), len(right))
	needed := NeededSourceFrames(requested, s.sourceRate, s.targetRate)
	if needed == 0 {
		return 0
	}
	s.tick.Store(int64(needed))
	if needed > len(s.readL) {
		d.stats.underruns.Add(1)
		return 0
	}

	srcL, srcR := s.readL[:needed], s.readR[:needed]
	if err := s.ring.Read(srcL, srcR); err != nil {
		d.stats.underruns.Add(1)
		return 0
	}
	d.stats.consumed.Add(uint64(needed))

	left, right = left[:requested], right[:requested]
	nl, errL := s.convL.Convert(left, srcL)
	if errL != nil {
		d.stats.resampleErrors.Add(1)
		nl = 0
	}
	nr, errR := s.convR.Convert(right, srcR)
	if errR != nil {
		d.stats.resampleErrors.Add(1)
		nr = 0
	}

	clear(left[nl:])
	clear(right[nr:])
	n := min(nl, nr)
	if n < requested {
		d.stats.short.Add(uint64(requested - n))
	}
	d.stats.rendered.Add(uint64(n))
	return n
}

// Free returns the number of frames Feed can accept without overrun, or 0
// when idle.
func (d *Driver) Free() int {
	if s := d.sess.Load(); s != nil {
		return s.ring.Free()
	}
	return 0
}

// Buffered returns the number of frames waiting to be rendered.
func (d *Driver) Buffered() int {
	if s := d.sess.Load(); s != nil {
		return s.ring.Available()
	}
	return 0
}

// TickFrames returns the number of source frames the most recent render
// tick needed, or 0 before the first tick of the session.
func (d *Driver) TickFrames() int {
	if s := d.sess.Load(); s != nil {
		return int(s.tick.Load())
	}
	return 0
}

// Drained reports whether the buffered audio is too short for another
// render tick. Without a session it is true.
func (d *Driver) Drained() bool {
	s := d.sess.Load()
	if s == nil {
		return true
	}
	buffered := s.ring.Available()
	return buffered == 0 || buffered < int(s.tick.Load())
}

// Stats returns a snapshot of the counters and the active session.
func (d *Driver) Stats() Stats {
	st := d.stats.snapshot()
	st.State = StateIdle.String()
	if s := d.sess.Load(); s != nil {
		st.State = StateActive.String()
		st.Session = s.id
		st.SourceRate = s.sourceRate
		st.TargetRate = s.targetRate
		st.Capacity = s.ring.Cap()
		st.Buffered = s.ring.Available()
	}
	return st
}

package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
)

const (
	// DefaultBlockFrames is the block size Pump feeds, 8ms at 44.1kHz.
	DefaultBlockFrames = 352

	// DefaultPoll is how often Pump checks for free space.
	DefaultPoll = 5 * time.Millisecond
)

// Feeder is the producer side of a Driver.
type Feeder interface {
	Feed(samples []int16) error
	Free() int
	Buffered() int
}

// tickFeeder is a Feeder whose consumer takes audio in whole render ticks,
// like Driver.
type tickFeeder interface {
	TickFrames() int
	Drained() bool
}

// Pump copies little-endian 16-bit stereo PCM from Source into Feeder,
// waiting for room in the buffer before every block.
type Pump struct {
	Feeder Feeder
	Source io.Reader

	// BlockFrames is the number of frames per Feed call.
	BlockFrames int

	// Poll is the wait between free space checks.
	Poll time.Duration

	// Drain makes Run wait at end of stream until the buffered audio has
	// been played. A tail shorter than one render tick is padded with
	// silence so it is played too.
	Drain bool

	// Live feeds blocks as they arrive without waiting for room. Blocks
	// that do not fit are dropped by the feeder. Use it for sources that
	// run on their own clock, such as network streams.
	Live bool
}

// Run pumps until Source is exhausted, ctx is done or Feed fails with
// anything other than ErrOverrun. It returns nil at end of stream.
// A block larger than the feeder's capacity fails with ErrBlockTooLarge.
func (p *Pump) Run(ctx context.Context) error {
	blockFrames := p.BlockFrames
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	poll := p.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	wait := func(ready func() bool) error {
		for !ready() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		return nil
	}

	src := pcm.NewFrameReader(p.Source, pcm.Stereo(0))
	frameBytes := src.FrameSize()
	raw := make([]byte, blockFrames*frameBytes)
	samples := make([]int16, blockFrames*2)

	var total int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, rerr := src.Read(raw)
		if frames := n / frameBytes; frames > 0 {
			block := samples[:frames*2]
			pcm.DecodeL16(block, raw[:frames*frameBytes])
			if err := p.feed(block, wait); err != nil {
				return err
			}
			total += frames
		}

		switch {
		case rerr == nil:
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			if rest := n % frameBytes; rest != 0 {
				slog.Warn("sink: pump: truncated frame at end of stream", "bytes", rest)
			}
			slog.Debug("sink: pump: end of stream", "frames", total)
			if p.Drain {
				return p.drain(wait)
			}
			return nil
		default:
			return fmt.Errorf("sink: pump: read: %w", rerr)
		}
	}
}

// drain waits until the buffered audio has been rendered.
func (p *Pump) drain(wait func(func() bool) error) error {
	tf, ok := p.Feeder.(tickFeeder)
	if !ok {
		return wait(func() bool { return p.Feeder.Buffered() == 0 })
	}
	// Every tick consumes the same number of frames, so a remainder would
	// never be rendered.
	if tick := tf.TickFrames(); tick > 0 {
		buffered := p.Feeder.Buffered()
		if rest := buffered % tick; rest != 0 && tick <= buffered+p.Feeder.Free() {
			slog.Debug("sink: pump: pad tail", "frames", tick-rest)
			if err := p.feed(make([]int16, 2*(tick-rest)), wait); err != nil {
				return err
			}
		}
	}
	return wait(tf.Drained)
}

// feed hands block to the feeder. Unless Live, it waits for room and retries
// when the feeder still reports an overrun.
func (p *Pump) feed(block []int16, wait func(func() bool) error) error {
	if p.Live {
		if err := p.Feeder.Feed(block); err != nil && !errors.Is(err, ErrOverrun) {
			return fmt.Errorf("sink: pump: %w", err)
		}
		return nil
	}
	frames := len(block) / 2
	for {
		// Buffered before Free: a concurrent render can only make the sum
		// larger than the capacity, never smaller.
		buffered := p.Feeder.Buffered()
		free := p.Feeder.Free()
		capacity := buffered + free
		if capacity > 0 && frames > capacity {
			return fmt.Errorf("sink: pump: %w: %d frames, capacity %d", ErrBlockTooLarge, frames, capacity)
		}
		// With no capacity at all let the feeder say why, such as
		// ErrNotStarted.
		if free >= frames || capacity == 0 {
			err := p.Feeder.Feed(block)
			if err == nil {
				return nil
			}
			if !errors.Is(err, ErrOverrun) {
				return fmt.Errorf("sink: pump: %w", err)
			}
		}
		if err := wait(func() bool { return p.Feeder.Free() >= frames }); err != nil {
			return err
		}
	}
}

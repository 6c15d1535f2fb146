package sink

import "sync/atomic"

// Stats is a snapshot of a Driver's counters. Counters are cumulative over
// the lifetime of the Driver; the session fields describe the active session.
type Stats struct {
	State      string `json:"state" yaml:"state"`
	Session    string `json:"session,omitempty" yaml:"session,omitempty"`
	SourceRate int    `json:"source_rate,omitempty" yaml:"source_rate,omitempty"`
	TargetRate int    `json:"target_rate,omitempty" yaml:"target_rate,omitempty"`
	Capacity   int    `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Buffered   int    `json:"buffered" yaml:"buffered"`

	// FedFrames counts frames accepted by Feed.
	FedFrames uint64 `json:"fed_frames" yaml:"fed_frames"`
	// Overruns counts blocks dropped by Feed; DroppedFrames their frames.
	Overruns      uint64 `json:"overruns" yaml:"overruns"`
	DroppedFrames uint64 `json:"dropped_frames" yaml:"dropped_frames"`

	// ConsumedFrames counts source frames read by Render.
	ConsumedFrames uint64 `json:"consumed_frames" yaml:"consumed_frames"`
	// RenderedFrames counts target frames produced by Render.
	RenderedFrames uint64 `json:"rendered_frames" yaml:"rendered_frames"`
	// Underruns counts Render calls that emitted nothing.
	Underruns uint64 `json:"underruns" yaml:"underruns"`
	// ResampleErrors counts converter failures.
	ResampleErrors uint64 `json:"resample_errors" yaml:"resample_errors"`
	// ShortFrames counts target frames zero-filled because the converter
	// produced fewer than requested.
	ShortFrames uint64 `json:"short_frames" yaml:"short_frames"`
}

type counters struct {
	fed            atomic.Uint64
	overruns       atomic.Uint64
	dropped        atomic.Uint64
	consumed       atomic.Uint64
	rendered       atomic.Uint64
	underruns      atomic.Uint64
	resampleErrors atomic.Uint64
	short          atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		FedFrames:      c.fed.Load(),
		Overruns:       c.overruns.Load(),
		DroppedFrames:  c.dropped.Load(),
		ConsumedFrames: c.consumed.Load(),
		RenderedFrames: c.rendered.Load(),
		Underruns:      c.underruns.Load(),
		ResampleErrors: c.resampleErrors.Load(),
		ShortFrames:    c.short.Load(),
	}
}

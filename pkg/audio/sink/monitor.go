package sink

import (
	"context"
	"log/slog"
	"time"
)

// DefaultMonitorInterval is the Monitor reporting period.
const DefaultMonitorInterval = time.Second

// StatsSource is implemented by Driver.
type StatsSource interface {
	Stats() Stats
}

// Monitor periodically logs buffer health. Render cannot log, so overruns,
// underruns and resample errors surface here as the change since the
// previous report.
type Monitor struct {
	Source   StatsSource
	Interval time.Duration
	Logger   *slog.Logger
}

// Run reports until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := m.Source.Stats()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cur := m.Source.Stats()
		m.report(prev, cur)
		prev = cur
	}
}

func (m *Monitor) report(prev, cur Stats) {
	log := m.Logger
	if log == nil {
		log = slog.Default()
	}

	if cur.Session != prev.Session {
		// A new session has an empty buffer; the counters keep running.
		log.Debug("sink: session changed", "from", prev.Session, "to", cur.Session)
	}
	if d := cur.Overruns - prev.Overruns; d > 0 {
		log.Warn("sink: buffer overrun",
			"session", cur.Session,
			"blocks", d,
			"dropped_frames", cur.DroppedFrames-prev.DroppedFrames,
			"buffered", cur.Buffered,
			"capacity", cur.Capacity)
	}
	if d := cur.Underruns - prev.Underruns; d > 0 {
		log.Warn("sink: buffer underrun",
			"session", cur.Session,
			"callbacks", d,
			"buffered", cur.Buffered)
	}
	if d := cur.ResampleErrors - prev.ResampleErrors; d > 0 {
		log.Error("sink: resample failed",
			"session", cur.Session,
			"errors", d,
			"short_frames", cur.ShortFrames-prev.ShortFrames)
	} else if d := cur.ShortFrames - prev.ShortFrames; d > 0 {
		log.Debug("sink: short resample output", "session", cur.Session, "frames", d)
	}
	log.Debug("sink: stats",
		"state", cur.State,
		"buffered", cur.Buffered,
		"fed", cur.FedFrames-prev.FedFrames,
		"rendered", cur.RenderedFrames-prev.RenderedFrames)
}

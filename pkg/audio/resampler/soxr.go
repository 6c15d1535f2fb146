package resampler

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

func (q Quality) preset() resampling.QualityPreset {
	switch q {
	case QualityQuick:
		return resampling.QualityQuick
	case QualityLow:
		return resampling.QualityLow
	case QualityMedium:
		return resampling.QualityMedium
	case QualityVeryHigh:
		return resampling.QualityVeryHigh
	}
	return resampling.QualityHigh
}

func newMono(srcRate, dstRate int, q Quality) (resampling.Resampler, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, srcRate, dstRate)
	}
	config := &resampling.Config{
		InputRate:  float64(srcRate),
		OutputRate: float64(dstRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: q.preset()},
	}
	rs, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("resampler: create %d -> %d: %w", srcRate, dstRate, err)
	}
	return rs, nil
}

// widen copies src into the reusable float64 scratch s.
func widen(s []float64, src []float32) []float64 {
	if cap(s) < len(src) {
		s = make([]float64, len(src))
	}
	s = s[:len(src)]
	for i, v := range src {
		s[i] = float64(v)
	}
	return s
}

// narrow copies as much of src into dst as fits.
func narrow(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float32(src[i])
	}
	return n
}

// edgeMargin is added to the filter reach when padding one-shot blocks.
const edgeMargin = 32

// OneShot is a stateless Converter: the filter is reset before every call,
// so each Convert treats its block as a complete signal.
//
// The block is extended on both sides by repeating its edge samples, and the
// filter delay is skipped, so output sample 0 lines up with source sample 0
// and the filter never sees the zero history that would fade the block in
// and out.
type OneShot struct {
	rs   resampling.Resampler
	pad  int // edge samples before the block; twice as many follow it
	skip int // output samples before the one aligned with src[0]
	in   []float64
}

// NewOneShot creates a OneShot converter for one channel.
func NewOneShot(srcRate, dstRate int, q Quality) (*OneShot, error) {
	rs, err := newMono(srcRate, dstRate, q)
	if err != nil {
		return nil, err
	}
	ratio := float64(dstRate) / float64(srcRate)
	latency := max(rs.GetLatency(), 0)
	pad := int(math.Ceil(float64(latency)/ratio)) + edgeMargin
	return &OneShot{
		rs:   rs,
		pad:  pad,
		skip: latency + int(math.Round(float64(pad)*ratio)),
	}, nil
}

// Convert resamples src into dst and returns the number of samples written.
// Output beyond len(dst) is discarded.
func (o *OneShot) Convert(dst, src []float32) (int, error) {
	if len(dst) == 0 || len(src) == 0 {
		return 0, nil
	}
	o.rs.Reset()
	o.in = o.extend(src)

	out, err := o.rs.Process(o.in)
	if err != nil {
		return 0, fmt.Errorf("resampler: process: %w", err)
	}
	n, skip := take(dst, 0, o.skip, out)
	if n == len(dst) {
		return n, nil
	}

	tail, err := o.rs.Flush()
	if err != nil {
		return n, fmt.Errorf("resampler: flush: %w", err)
	}
	n, _ = take(dst, n, skip, tail)
	return n, nil
}

// extend lays out src in the reusable input scratch with o.pad copies of the
// first sample before it and 2*o.pad copies of the last sample after it. The
// trailing side is longer because the filter holds back its delay.
func (o *OneShot) extend(src []float32) []float64 {
	size := o.pad + len(src) + 2*o.pad
	if cap(o.in) < size {
		o.in = make([]float64, size)
	}
	in := o.in[:size]
	first, last := float64(src[0]), float64(src[len(src)-1])
	for i := range o.pad {
		in[i] = first
	}
	widen(in[o.pad:o.pad+len(src)], src)
	for i := o.pad + len(src); i < size; i++ {
		in[i] = last
	}
	return in
}

// take skips the first skip samples of out and copies the rest into dst[n:].
// It returns the new fill level and the samples still to skip.
func take(dst []float32, n, skip int, out []float64) (int, int) {
	if skip >= len(out) {
		return n, skip - len(out)
	}
	return n + narrow(dst[n:], out[skip:]), 0
}

// Continuous is a stateful Converter: filter history is kept between calls
// and output that does not fit in dst is carried into the next call.
type Continuous struct {
	rs    resampling.Resampler
	in    []float64
	carry []float64
}

// maxCarryBlocks bounds the carried output to this many destination lengths.
const maxCarryBlocks = 4

// NewContinuous creates a Continuous converter for one channel.
func NewContinuous(srcRate, dstRate int, q Quality) (*Continuous, error) {
	rs, err := newMono(srcRate, dstRate, q)
	if err != nil {
		return nil, err
	}
	return &Continuous{rs: rs}, nil
}

// Convert feeds src to the filter and fills dst from carried and new output.
// It returns fewer than len(dst) samples while the filter is still filling.
func (c *Continuous) Convert(dst, src []float32) (int, error) {
	if len(src) > 0 {
		c.in = widen(c.in, src)
		out, err := c.rs.Process(c.in)
		if err != nil {
			return 0, fmt.Errorf("resampler: process: %w", err)
		}
		c.carry = append(c.carry, out...)
	}

	n := narrow(dst, c.carry)
	rest := copy(c.carry, c.carry[n:])
	c.carry = c.carry[:rest]

	// A clock running slower than the source leaves output behind; drop the
	// oldest rather than grow without bound.
	if limit := maxCarryBlocks * len(dst); limit > 0 && len(c.carry) > limit {
		drop := len(c.carry) - limit
		rest = copy(c.carry, c.carry[drop:])
		c.carry = c.carry[:rest]
	}
	return n, nil
}

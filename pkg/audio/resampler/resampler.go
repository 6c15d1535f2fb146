package resampler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRate is returned when a sample rate is not positive.
	ErrInvalidRate = errors.New("resampler: invalid sample rate")

	// ErrUnknownMode is returned by ParseMode for unrecognized names.
	ErrUnknownMode = errors.New("resampler: unknown mode")

	// ErrUnknownQuality is returned by ParseQuality for unrecognized names.
	ErrUnknownQuality = errors.New("resampler: unknown quality")
)

// Converter resamples one channel from a fixed source rate to a fixed target
// rate. Convert writes at most len(dst) samples and returns how many it
// produced.
type Converter interface {
	Convert(dst, src []float32) (int, error)
}

var _ Converter = ConvertFunc(nil)

// ConvertFunc is a function that implements the Converter interface.
type ConvertFunc func(dst, src []float32) (int, error)

// Convert implements the Converter interface.
func (f ConvertFunc) Convert(dst, src []float32) (int, error) {
	return f(dst, src)
}

// Passthrough is the Converter used when the source and target rates match.
type Passthrough struct{}

// Convert copies src into dst.
func (Passthrough) Convert(dst, src []float32) (int, error) {
	return copy(dst, src), nil
}

// Mode selects how state is handled between Convert calls.
type Mode int

const (
	// ModeOneShot converts every block independently.
	ModeOneShot Mode = iota

	// ModeContinuous keeps filter state across blocks.
	ModeContinuous
)

// ParseMode parses "oneshot" or "continuous". The empty string is oneshot.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "oneshot", "one-shot":
		return ModeOneShot, nil
	case "continuous":
		return ModeContinuous, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOneShot:
		return "oneshot"
	case ModeContinuous:
		return "continuous"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Quality selects the filter quality preset.
type Quality int

const (
	QualityQuick Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
	QualityVeryHigh
)

var qualityNames = map[Quality]string{
	QualityQuick:    "quick",
	QualityLow:      "low",
	QualityMedium:   "medium",
	QualityHigh:     "high",
	QualityVeryHigh: "very-high",
}

// ParseQuality parses a preset name. The empty string is high.
func ParseQuality(s string) (Quality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return QualityHigh, nil
	}
	for q, name := range qualityNames {
		if name == s {
			return q, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownQuality, s)
}

// String returns the configuration name of the preset.
func (q Quality) String() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// New creates a Converter for one channel. Equal rates always yield
// Passthrough.
func New(mode Mode, srcRate, dstRate int, q Quality) (Converter, error) {
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, srcRate, dstRate)
	}
	if srcRate == dstRate {
		return Passthrough{}, nil
	}
	switch mode {
	case ModeOneShot:
		return NewOneShot(srcRate, dstRate, q)
	case ModeContinuous:
		return NewContinuous(srcRate, dstRate, q)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
}

// Package resampler converts mono float32 sample blocks between sample rates.
//
// A Converter is bound to one source rate, one target rate and one channel.
// Convert fills a caller-provided destination of fixed length from a source
// block and reports how many output samples were produced:
//
//   - OneShot carries no state between calls; every call is an independent
//     conversion of the block it is given. This is cheap to reason about but
//     block boundaries can be audible.
//   - Continuous keeps filter state and surplus output across calls, so
//     consecutive blocks form one continuous signal.
//   - Passthrough copies when both rates are equal.
//
// OneShot and Continuous use the pure Go SoX-style resampler from
// github.com/tphakala/go-audio-resampling.
//
// Example usage:
//
//	conv, err := resampler.New(resampler.ModeOneShot, 44100, 48000, resampler.QualityHigh)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := make([]float32, 480)
//	n, err := conv.Convert(out, in[:441])
package resampler

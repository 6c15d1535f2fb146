package songs

import (
	"bytes"
	"io"
	"math"
	"time"

	"github.com/haivivi/pcmsink/pkg/audio/pcm"
)

// DefaultVolume is used when Render is given a volume outside (0, 1].
const DefaultVolume = 0.5

// partials of the piano-like voice: frequency ratio, amplitude, decay rate.
var partials = [...]struct{ ratio, amp, decay float64 }{
	{1, 1.0, 1.0},
	{2, 0.5, 1.4},
	{3, 0.25, 2.0},
	{4, 0.12, 2.8},
}

// Render synthesizes the song as little-endian 16-bit stereo PCM at rate.
// The melody is panned slightly left and the bass slightly right.
func (s Song) Render(rate int, volume float64) io.Reader {
	if volume <= 0 || volume > 1 {
		volume = DefaultVolume
	}
	beat := 60 / float64(s.BPM)
	frames := int(math.Ceil(s.Beats() * beat * float64(rate)))
	left := make([]float64, frames)
	right := make([]float64, frames)

	mixVoice(left, right, s.Melody, beat, rate, volume*0.7, 0.6)
	mixVoice(left, right, s.Bass, beat, rate, volume*0.4, 0.4)

	samples := make([]int16, 2*frames)
	for i := range frames {
		samples[2*i] = toInt16(left[i])
		samples[2*i+1] = toInt16(right[i])
	}
	data := make([]byte, 2*len(samples))
	pcm.EncodeL16(data, samples)
	return bytes.NewReader(data)
}

// mixVoice adds notes into left and right. pan is the left share in [0, 1].
func mixVoice(left, right []float64, notes []Note, beat float64, rate int, volume, pan float64) {
	var at float64
	for _, n := range notes {
		start := int(at * beat * float64(rate))
		at += n.Beats
		end := min(int(at*beat*float64(rate)), len(left))
		if n.Freq == Rest || end <= start {
			continue
		}
		for i := start; i < end; i++ {
			v := volume * noteSample(n.Freq, i-start, end-start, rate)
			left[i] += v * pan
			right[i] += v * (1 - pan)
		}
	}
}

// noteSample returns sample i of a note of length frames: decaying partials
// under a 3ms attack and a release over the last 15%.
func noteSample(freq float64, i, frames, rate int) float64 {
	t := float64(i) / float64(rate)
	progress := float64(i) / float64(frames)

	var v float64
	for _, p := range partials {
		v += p.amp * math.Exp(-progress*p.decay*3) * math.Sin(2*math.Pi*freq*p.ratio*t)
	}
	v /= 1.5

	const attack = 0.003
	switch {
	case t < attack:
		v *= 1 - math.Exp(-5*t/attack)
	case progress > 0.85:
		r := (progress - 0.85) / 0.15
		v *= 1 - r*r
	}
	return v
}

func toInt16(v float64) int16 {
	return int16(max(-1, min(1, v)) * 32767)
}

// Tone returns d of a stereo sine wave at freq as little-endian 16-bit PCM.
func Tone(freq float64, rate int, d time.Duration, volume float64) io.Reader {
	if volume <= 0 || volume > 1 {
		volume = DefaultVolume
	}
	frames := int(pcm.Stereo(rate).FramesInDuration(d))
	samples := make([]int16, 2*frames)
	for i := range frames {
		v := toInt16(volume * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
		samples[2*i], samples[2*i+1] = v, v
	}
	data := make([]byte, 2*len(samples))
	pcm.EncodeL16(data, samples)
	return bytes.NewReader(data)
}

// Package audio is the umbrella for the pcmsink audio packages:
//
//   - sink: the driver that moves PCM from a producer into a real-time
//     render callback, with per-callback resampling
//   - resampler: per-channel sample rate converters
//   - pcm: 16-bit PCM formats, L16 framing and channel conversion
//   - codec: WAV, MP3 and Ogg Vorbis decoders producing stereo L16
//   - netin: TCP and WebSocket PCM receivers
//   - portaudio, otoout, wavout: output devices that own the audio clock
//
// The ring buffer shared by producer and callback lives in the separate
// github.com/haivivi/pcmsink/pkg/buffer package.
//
// Example usage:
//
//	d := sink.NewDriver(&portaudio.Output{})
//	if err := d.Init(sink.DefaultOptions()); err != nil {
//	    return err
//	}
//	defer d.Deinit()
//
//	src, err := codec.Open("song.mp3")
//	if err := d.Start(src.SampleRate()); err != nil {
//	    return err
//	}
//	err = (&sink.Pump{Feeder: d, Source: src, Drain: true}).Run(ctx)
package audio

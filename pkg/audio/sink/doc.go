// Package sink streams decoded 16-bit stereo PCM into a real-time audio
// device callback running at the device's own sample rate.
//
// A Driver owns one session at a time. A session is created by Start with the
// source sample rate of the incoming stream and holds a buffer.Stereo of one
// second of audio plus one resampler per channel. Two goroutines use a
// session concurrently and never wait for each other:
//
//   - The feeder calls Feed with interleaved samples. A block that does not
//     fit is dropped whole and counted as an overrun.
//   - The device clock calls Render with two destination buffers. Render
//     computes how many source frames the request needs, reads them and
//     resamples each channel into the destination. When not enough frames
//     are buffered it returns 0 without touching the destination and counts
//     an underrun.
//
// Render does not lock, log or allocate; the resampling library may allocate
// internally. Counters are exposed through Stats and reported by Monitor.
//
// Pump is a paced feeder for sources that can deliver faster than real time,
// such as files: it waits for free space instead of overrunning.
//
// Example usage:
//
//	d := sink.NewDriver(dev)
//	if err := d.Init(sink.DefaultOptions()); err != nil {
//	    log.Fatal(err)
//	}
//	if err := d.Start(44100); err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Deinit()
//
//	p := &sink.Pump{Feeder: d, Source: pcmStream}
//	err := p.Run(ctx)
package sink

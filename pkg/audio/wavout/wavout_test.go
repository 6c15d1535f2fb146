package wavout

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/haivivi/pcmsink/pkg/audio/codec/wav"
	"github.com/haivivi/pcmsink/pkg/audio/pcm"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
)

func TestOutputRecordsSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	out := &Output{SampleRate: 1000, Period: 10 * time.Millisecond}
	d := sink.NewDriver(out)
	opts := sink.DefaultOptions()
	opts.PortSpec = path
	if err := d.Init(opts); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(1000); err != nil {
		t.Fatalf("Start: %v", err)
	}

	block := make([]int16, 2*10)
	for i := range block {
		block[i] = 1000
	}
	if err := d.Feed(block); err != nil {
		t.Fatalf("Feed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for d.Buffered() > 0 || out.Frames() < 50 {
		if time.Now().After(deadline) {
			t.Fatalf("clock stalled: buffered=%d frames=%d", d.Buffered(), out.Frames())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := d.Deinit(); err != nil {
		t.Fatalf("Deinit: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	s, err := wav.NewStream(f)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	if s.SampleRate() != 1000 {
		t.Errorf("SampleRate() = %d", s.SampleRate())
	}
	data, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	samples := make([]int16, len(data)/2)
	pcm.DecodeL16(samples, data)

	if len(samples)%20 != 0 {
		t.Errorf("%d samples is not whole periods", len(samples))
	}
	var loud int
	for _, v := range samples {
		switch {
		case v == 0:
		case v >= 999 && v <= 1000:
			loud++
		default:
			t.Fatalf("unexpected sample %d", v)
		}
	}
	if loud != len(block) {
		t.Errorf("%d non-silent samples, want %d", loud, len(block))
	}
}

func TestOutputOpenErrors(t *testing.T) {
	out := &Output{}
	render := func(left, right []float32) int { return 0 }
	if _, err := out.Open("", render); err == nil {
		t.Error("Open with empty port succeeded")
	}
	if _, err := out.Open(filepath.Join(t.TempDir(), "missing", "out.wav"), render); err == nil {
		t.Error("Open in missing directory succeeded")
	}

	path := filepath.Join(t.TempDir(), "x.wav")
	rate, err := out.Open(path, render)
	if err != nil {
		t.Fatal(err)
	}
	if rate != DefaultSampleRate {
		t.Errorf("rate = %d", rate)
	}
	if _, err := out.Open(path, render); err == nil {
		t.Error("second Open succeeded")
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

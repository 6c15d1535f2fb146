package sink

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/haivivi/pcmsink/pkg/audio/resampler"
)

type fakeDevice struct {
	rate    int
	openErr error

	opens  int
	closes int
	port   string
	render RenderFunc
}

func (f *fakeDevice) Name() string { return "fake" }
func (f *fakeDevice) Help() string { return "fake device for tests" }

func (f *fakeDevice) Open(portSpec string, render RenderFunc) (int, error) {
	f.opens++
	if f.openErr != nil {
		return 0, f.openErr
	}
	f.port = portSpec
	f.render = render
	return f.rate, nil
}

func (f *fakeDevice) Close() error {
	f.closes++
	return nil
}

func newStarted(t *testing.T, sourceRate, targetRate int, opts Options) (*Driver, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{rate: targetRate}
	d := NewDriver(dev)
	if err := d.Init(opts); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := d.Start(sourceRate); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return d, dev
}

func frames(n int, v int16) []int16 {
	s := make([]int16, 2*n)
	for i := range s {
		s[i] = v
	}
	return s
}

func filled(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestDriverLifecycle(t *testing.T) {
	dev := &fakeDevice{rate: 48000}
	d := NewDriver(dev)

	if got := d.State(); got != StateIdle {
		t.Fatalf("State() = %v, want idle", got)
	}
	if err := d.Feed(frames(1, 0)); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Feed before Start = %v, want ErrNotStarted", err)
	}
	left, right := filled(4, 7), filled(4, 7)
	if n := d.Render(left, right); n != 0 || left[0] != 7 {
		t.Fatalf("Render while idle = %d, left[0]=%v", n, left[0])
	}

	opts := DefaultOptions()
	opts.PortSpec = "speakers"
	if err := d.Init(opts); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := d.Start(44100); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := d.State(); got != StateActive {
		t.Fatalf("State() = %v, want active", got)
	}
	if dev.port != "speakers" {
		t.Errorf("port = %q", dev.port)
	}
	if dev.render == nil {
		t.Fatal("device has no render callback")
	}
	st := d.Stats()
	if st.SourceRate != 44100 || st.TargetRate != 48000 || st.Capacity != 44100*BufferSizeFactor {
		t.Errorf("Stats = %+v", st)
	}
	if st.Session == "" {
		t.Error("empty session id")
	}

	if err := d.Init(opts); !errors.Is(err, ErrActive) {
		t.Errorf("Init while active = %v, want ErrActive", err)
	}

	if err := d.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := d.State(); got != StateIdle {
		t.Fatalf("State() after Stop = %v", got)
	}
	if err := d.Start(22050); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if dev.opens != 1 {
		t.Errorf("device opened %d times, want 1", dev.opens)
	}

	if err := d.Deinit(); err != nil {
		t.Fatalf("Deinit: %v", err)
	}
	if err := d.Deinit(); err != nil {
		t.Fatalf("second Deinit: %v", err)
	}
	if dev.closes != 1 {
		t.Errorf("device closed %d times, want 1", dev.closes)
	}
	if got := d.State(); got != StateIdle {
		t.Errorf("State() after Deinit = %v", got)
	}
}

func TestDriverStartErrors(t *testing.T) {
	t.Run("bad source rate", func(t *testing.T) {
		d := NewDriver(&fakeDevice{rate: 48000})
		for _, rate := range []int{0, -44100} {
			if err := d.Start(rate); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Start(%d) = %v, want ErrInvalidConfig", rate, err)
			}
		}
	})

	t.Run("open fails", func(t *testing.T) {
		cause := errors.New("no such port")
		dev := &fakeDevice{openErr: cause}
		d := NewDriver(dev)
		err := d.Start(44100)
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Fatalf("Start = %v, want ErrDeviceUnavailable", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("Start = %v, want cause wrapped", err)
		}
		if d.State() != StateIdle {
			t.Error("driver became active")
		}
	})

	t.Run("no target rate", func(t *testing.T) {
		dev := &fakeDevice{rate: 0}
		d := NewDriver(dev)
		if err := d.Start(44100); !errors.Is(err, ErrDeviceUnavailable) {
			t.Fatalf("Start = %v, want ErrDeviceUnavailable", err)
		}
		if dev.closes != 1 {
			t.Errorf("closes = %d, want 1", dev.closes)
		}
	})

	t.Run("converter fails", func(t *testing.T) {
		cause := errors.New("boom")
		opts := DefaultOptions()
		opts.NewConverter = func(int, int) (resampler.Converter, error) { return nil, cause }
		d := NewDriver(&fakeDevice{rate: 48000})
		if err := d.Init(opts); err != nil {
			t.Fatal(err)
		}
		if err := d.Start(44100); !errors.Is(err, cause) {
			t.Fatalf("Start = %v, want %v", err, cause)
		}
		if d.State() != StateIdle {
			t.Error("driver became active")
		}
	})
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		buffer  int
		latency int
		wantErr bool
	}{
		{"defaults", DefaultBufferDesiredLength, 0, false},
		{"zero buffer", 0, 0, false},
		{"max buffer", MaxBufferDesiredLength, 0, false},
		{"negative buffer", -1, 0, true},
		{"buffer too long", MaxBufferDesiredLength + 1, 0, true},
		{"min latency", DefaultBufferDesiredLength, -MaxLatencyOffset, false},
		{"max latency", DefaultBufferDesiredLength, MaxLatencyOffset, false},
		{"latency too low", DefaultBufferDesiredLength, -MaxLatencyOffset - 1, true},
		{"latency too high", DefaultBufferDesiredLength, MaxLatencyOffset + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.BufferDesiredLength = tt.buffer
			opts.LatencyOffset = tt.latency

			d := NewDriver(&fakeDevice{rate: 48000})
			err := d.Init(opts)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Init = %v, want ErrInvalidConfig", err)
				}
				if got := d.Options().BufferDesiredLength; got != DefaultBufferDesiredLength {
					t.Errorf("options changed to %d after failed Init", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Init = %v", err)
			}
			if got := d.Options(); got.BufferDesiredLength != tt.buffer || got.LatencyOffset != tt.latency {
				t.Errorf("Options() = %+v", got)
			}
		})
	}
}

func TestDriverFeed(t *testing.T) {
	d, _ := newStarted(t, 100, 100, DefaultOptions())

	if err := d.Feed([]int16{1, 2, 3}); !errors.Is(err, ErrOddSamples) {
		t.Fatalf("Feed(odd) = %v, want ErrOddSamples", err)
	}
	if err := d.Feed(nil); err != nil {
		t.Fatalf("Feed(nil) = %v", err)
	}
	if got := d.Buffered(); got != 0 {
		t.Fatalf("Buffered() = %d", got)
	}

	if err := d.Play(frames(100, 1)); err != nil {
		t.Fatalf("Play(full capacity) = %v", err)
	}
	if got := d.Free(); got != 0 {
		t.Fatalf("Free() = %d, want 0", got)
	}
	if err := d.Feed(frames(1, 1)); !errors.Is(err, ErrOverrun) {
		t.Fatalf("Feed into full buffer = %v, want ErrOverrun", err)
	}
}

func TestDriverFeedNormalizes(t *testing.T) {
	d, _ := newStarted(t, 100, 100, DefaultOptions())

	in := []int16{32767, -32768, 0, 16384, -16384, 1}
	if err := d.Feed(in); err != nil {
		t.Fatal(err)
	}
	left, right := make([]float32, 3), make([]float32, 3)
	if n := d.Render(left, right); n != 3 {
		t.Fatalf("Render = %d, want 3", n)
	}

	wantL := []float32{1, 0, -16384.0 / 32767}
	wantR := []float32{-1, 16384.0 / 32767, 1.0 / 32767}
	for i := range wantL {
		if math.Abs(float64(left[i]-wantL[i])) > 1e-6 {
			t.Errorf("left[%d] = %v, want %v", i, left[i], wantL[i])
		}
		if math.Abs(float64(right[i]-wantR[i])) > 1e-6 {
			t.Errorf("right[%d] = %v, want %v", i, right[i], wantR[i])
		}
	}
	for _, v := range append(left, right...) {
		if v < -1 || v > 1 {
			t.Errorf("sample %v out of range", v)
		}
	}
}

// Capacity 100 frames, as a 100Hz source with a matching device.
func TestDriverOverrunAndUnderrun(t *testing.T) {
	d, _ := newStarted(t, 100, 100, DefaultOptions())

	if err := d.Feed(frames(60, 100)); err != nil {
		t.Fatalf("Feed(60) = %v", err)
	}
	if err := d.Feed(frames(50, 200)); !errors.Is(err, ErrOverrun) {
		t.Fatalf("Feed(50) = %v, want ErrOverrun", err)
	}
	if got := d.Buffered(); got != 60 {
		t.Fatalf("Buffered() after overrun = %d, want 60", got)
	}

	left, right := make([]float32, 40), make([]float32, 40)
	if n := d.Render(left, right); n != 40 {
		t.Fatalf("Render(40) = %d", n)
	}
	want := float32(100) / 32767
	for i := range left {
		if left[i] != want || right[i] != want {
			t.Fatalf("frame %d = (%v, %v), want %v; dropped block leaked", i, left[i], right[i], want)
		}
	}
	if got := d.Buffered(); got != 20 {
		t.Fatalf("Buffered() = %d, want 20", got)
	}

	left, right = filled(30, 9), filled(30, 9)
	if n := d.Render(left, right); n != 0 {
		t.Fatalf("Render(30) with 20 buffered = %d, want 0", n)
	}
	for i := range left {
		if left[i] != 9 || right[i] != 9 {
			t.Fatalf("destination modified at %d on underrun", i)
		}
	}
	if got := d.Buffered(); got != 20 {
		t.Fatalf("Buffered() after underrun = %d, want 20", got)
	}

	st := d.Stats()
	if st.Overruns != 1 || st.DroppedFrames != 50 {
		t.Errorf("overruns = %d dropped = %d", st.Overruns, st.DroppedFrames)
	}
	if st.Underruns != 1 {
		t.Errorf("underruns = %d", st.Underruns)
	}
	if st.FedFrames != 60 || st.ConsumedFrames != 40 || st.RenderedFrames != 40 {
		t.Errorf("fed = %d consumed = %d rendered = %d", st.FedFrames, st.ConsumedFrames, st.RenderedFrames)
	}
}

func TestDriverRestartDiscards(t *testing.T) {
	d, dev := newStarted(t, 100, 100, DefaultOptions())
	if err := d.Feed(frames(50, 1)); err != nil {
		t.Fatal(err)
	}
	first := d.Stats().Session

	if err := d.Start(200); err != nil {
		t.Fatalf("re-Start: %v", err)
	}
	st := d.Stats()
	if st.Buffered != 0 {
		t.Errorf("Buffered = %d after re-Start", st.Buffered)
	}
	if st.Capacity != 200 || st.SourceRate != 200 {
		t.Errorf("Stats = %+v", st)
	}
	if st.Session == first {
		t.Error("session id reused")
	}
	if dev.opens != 1 {
		t.Errorf("device opened %d times", dev.opens)
	}
	left, right := filled(10, 3), filled(10, 3)
	if n := dev.render(left, right); n != 0 || left[0] != 3 {
		t.Errorf("render after re-Start = %d", n)
	}
}

// double writes each source sample twice.
func double(dst, src []float32) (int, error) {
	n := 0
	for _, v := range src {
		for range 2 {
			if n == len(dst) {
				return n, nil
			}
			dst[n] = v
			n++
		}
	}
	return n, nil
}

func TestDriverRenderConsumesRoundedFrames(t *testing.T) {
	var got []int
	opts := DefaultOptions()
	opts.NewConverter = func(src, dst int) (resampler.Converter, error) {
		return resampler.ConvertFunc(func(d, s []float32) (int, error) {
			got = append(got, len(s))
			return double(d, s)
		}), nil
	}
	d, _ := newStarted(t, 1000, 2000, opts)
	if err := d.Feed(frames(100, 1000)); err != nil {
		t.Fatal(err)
	}

	left, right := make([]float32, 40), make([]float32, 40)
	if n := d.Render(left, right); n != 40 {
		t.Fatalf("Render = %d", n)
	}
	if d.Buffered() != 80 {
		t.Errorf("Buffered() = %d, want 80", d.Buffered())
	}
	left, right = make([]float32, 3), make([]float32, 3)
	d.Render(left, right)
	if d.Buffered() != 78 {
		t.Errorf("Buffered() = %d, want 78 (1.5 rounds up)", d.Buffered())
	}
	if len(got) != 4 || got[0] != 20 || got[2] != 2 {
		t.Errorf("converter inputs = %v", got)
	}
}

func TestDriverRenderResampledLevel(t *testing.T) {
	tests := []struct {
		name  string
		mode  resampler.Mode
		ticks int
		// settle is the number of leading ticks not checked while a
		// continuous filter fills.
		settle int
	}{
		{"oneshot", resampler.ModeOneShot, 8, 0},
		{"continuous", resampler.ModeContinuous, 40, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.ResampleMode = tt.mode
			d, _ := newStarted(t, 44100, 48000, opts)
			if err := d.Feed(frames(20000, 16384)); err != nil {
				t.Fatal(err)
			}

			left, right := make([]float32, 128), make([]float32, 128)
			var produced int
			for tick := range tt.ticks {
				n := d.Render(left, right)
				if tick < tt.settle {
					continue
				}
				produced += n
				for i := range n {
					if math.Abs(float64(left[i])-0.5) > 0.05 || math.Abs(float64(right[i])-0.5) > 0.05 {
						t.Fatalf("tick %d frame %d = (%v, %v), want about 0.5", tick, i, left[i], right[i])
					}
				}
			}
			if want := (tt.ticks - tt.settle) * len(left) * 9 / 10; produced < want {
				t.Errorf("produced %d frames, want at least %d", produced, want)
			}
			if got, want := d.Buffered(), 20000-tt.ticks*118; got != want {
				t.Errorf("Buffered() = %d, want %d", got, want)
			}
		})
	}
}

func TestDriverResampleFailure(t *testing.T) {
	cause := errors.New("filter exploded")
	opts := DefaultOptions()
	opts.NewConverter = func(int, int) (resampler.Converter, error) {
		return resampler.ConvertFunc(func(dst, src []float32) (int, error) {
			return 0, cause
		}), nil
	}
	d, _ := newStarted(t, 100, 100, opts)
	if err := d.Feed(frames(10, 500)); err != nil {
		t.Fatal(err)
	}

	left, right := filled(10, 9), filled(10, 9)
	if n := d.Render(left, right); n != 0 {
		t.Fatalf("Render = %d, want 0", n)
	}
	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			t.Fatalf("frame %d not zeroed", i)
		}
	}
	st := d.Stats()
	if st.ResampleErrors != 2 {
		t.Errorf("ResampleErrors = %d, want 2", st.ResampleErrors)
	}
	if st.ShortFrames != 10 {
		t.Errorf("ShortFrames = %d, want 10", st.ShortFrames)
	}
	if st.Underruns != 0 || st.ConsumedFrames != 10 {
		t.Errorf("underruns = %d consumed = %d", st.Underruns, st.ConsumedFrames)
	}
}

func TestDriverShortConversion(t *testing.T) {
	opts := DefaultOptions()
	opts.NewConverter = func(int, int) (resampler.Converter, error) {
		return resampler.ConvertFunc(func(dst, src []float32) (int, error) {
			return copy(dst[:len(dst)/2], src), nil
		}), nil
	}
	d, _ := newStarted(t, 100, 100, opts)
	if err := d.Feed(frames(8, 32767)); err != nil {
		t.Fatal(err)
	}
	left, right := filled(8, 9), filled(8, 9)
	if n := d.Render(left, right); n != 4 {
		t.Fatalf("Render = %d, want 4", n)
	}
	for i := range 8 {
		want := float32(0)
		if i < 4 {
			want = 1
		}
		if left[i] != want || right[i] != want {
			t.Errorf("frame %d = (%v, %v), want %v", i, left[i], right[i], want)
		}
	}
	if st := d.Stats(); st.ShortFrames != 4 || st.ResampleErrors != 0 {
		t.Errorf("short = %d errors = %d", st.ShortFrames, st.ResampleErrors)
	}
}

func TestDriverRenderLargerThanCapacity(t *testing.T) {
	d, _ := newStarted(t, 100, 100, DefaultOptions())
	if err := d.Feed(frames(100, 1)); err != nil {
		t.Fatal(err)
	}
	left, right := make([]float32, 101), make([]float32, 101)
	if n := d.Render(left, right); n != 0 {
		t.Fatalf("Render = %d, want 0", n)
	}
	if d.Buffered() != 100 || d.Stats().Underruns != 1 {
		t.Errorf("buffered = %d stats = %+v", d.Buffered(), d.Stats())
	}
}

func TestDriverConcurrentFeedRender(t *testing.T) {
	const total = 20000
	d, _ := newStarted(t, 1000, 1000, DefaultOptions())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		block := make([]int16, 2*50)
		for next := 0; next < total; {
			for i := range 50 {
				v := int16((next + i) % 30000)
				block[2*i], block[2*i+1] = v, -v
			}
			err := d.Feed(block)
			if errors.Is(err, ErrOverrun) {
				continue
			}
			if err != nil {
				t.Errorf("Feed: %v", err)
				return
			}
			next += 50
		}
	}()

	left, right := make([]float32, 64), make([]float32, 64)
	for got := 0; got < total; {
		want := min(64, total-got)
		n := d.Render(left[:want], right[:want])
		for i := range n {
			l := int(math.Round(float64(left[i]) * 32767))
			r := int(math.Round(float64(right[i]) * 32767))
			if exp := (got + i) % 30000; l != exp || r != -exp {
				t.Fatalf("frame %d = (%d, %d), want (%d, %d)", got+i, l, r, exp, -exp)
			}
		}
		got += n
	}
	wg.Wait()
}

func TestNeededSourceFrames(t *testing.T) {
	tests := []struct {
		req, src, tgt int
		want          int
	}{
		{441, 44100, 44100, 441},
		{1, 3, 2, 2},
		{1, 1, 2, 1},
		{512, 44100, 48000, 470},
		{480, 44100, 48000, 441},
		{441, 48000, 44100, 480},
		{0, 44100, 48000, 0},
		{10, 0, 48000, 0},
		{10, 44100, 0, 0},
	}
	for _, tt := range tests {
		if got := NeededSourceFrames(tt.req, tt.src, tt.tgt); got != tt.want {
			t.Errorf("NeededSourceFrames(%d, %d, %d) = %d, want %d", tt.req, tt.src, tt.tgt, got, tt.want)
		}
	}
}

func TestState(t *testing.T) {
	if StateIdle.String() != "idle" || StateActive.String() != "active" {
		t.Errorf("String() = %q, %q", StateIdle, StateActive)
	}
}

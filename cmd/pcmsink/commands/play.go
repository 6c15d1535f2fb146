package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmsink/pkg/audio/codec"
	"github.com/haivivi/pcmsink/pkg/audio/netin"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
	"github.com/haivivi/pcmsink/pkg/audio/songs"
	"github.com/haivivi/pcmsink/pkg/cli"
)

var (
	playBackend string
	playPort    string
	playBuffer  int
	playLatency int
	playRate    int
	playListen  string
	playWS      string
	playLive    bool
	playStats   string
	playSong    string
	playTone    float64
	playToneDur time.Duration
)

// generatedRate is the source rate of --song and --tone when --rate is unset.
const generatedRate = 44100

var playCmd = &cobra.Command{
	Use:   "play [file|-]",
	Short: "Play PCM from a file, stdin or the network",
	Long: `Play audio through the configured output.

A file is decoded by extension (wav, mp3, ogg). "-" reads raw
little-endian 16-bit stereo PCM from stdin at --rate.

With --listen or --ws, pcmsink waits for network streams and plays them one
at a time; every stream starts a new session at its own sample rate.

--song and --tone play a built-in melody or a sine wave to check the output.

Examples:
  pcmsink play song.wav
  sox in.flac -t raw -b 16 -e signed -c 2 - | pcmsink play --rate 48000 -
  pcmsink play --listen :7000 --backend wav --port out.wav
  pcmsink play --song twinkle_star --rate 22050`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&playBackend, "backend", "b", "", "output backend: portaudio, oto or wav")
	playCmd.Flags().StringVarP(&playPort, "port", "p", "", "output port (device name, or file for wav)")
	playCmd.Flags().IntVar(&playBuffer, "buffer", sink.DefaultBufferDesiredLength, "desired buffer length in frames")
	playCmd.Flags().IntVar(&playLatency, "latency", 0, "latency offset in frames")
	playCmd.Flags().IntVar(&playRate, "rate", 0, "source rate of stdin, --song and --tone (default 44100 for generated audio)")
	playCmd.Flags().StringVar(&playListen, "listen", "", "accept TCP streams on this address")
	playCmd.Flags().StringVar(&playWS, "ws", "", "accept WebSocket streams on this address")
	playCmd.Flags().BoolVar(&playLive, "live", false, "drop blocks on overrun instead of waiting for room")
	playCmd.Flags().StringVar(&playStats, "stats", "", "print final stats as text, yaml or json")
	playCmd.Flags().StringVar(&playSong, "song", "", "play a built-in song: "+strings.Join(songs.IDs(), ", "))
	playCmd.Flags().Float64Var(&playTone, "tone", 0, "play a sine wave at this frequency in Hz")
	playCmd.Flags().DurationVar(&playToneDur, "duration", 3*time.Second, "length of --tone")
	playCmd.MarkFlagsMutuallyExclusive("song", "tone", "listen", "ws")
}

func runPlay(cmd *cobra.Command, args []string) error {
	generated := playSong != "" || playTone > 0
	network := playListen != "" || playWS != ""
	if len(args) == 0 && !generated && !network {
		return fmt.Errorf("%w: nothing to play; give a file, -, --song, --tone or --listen/--ws", sink.ErrInvalidConfig)
	}
	if len(args) > 0 && (generated || network) {
		return fmt.Errorf("%w: a file cannot be combined with --song, --tone, --listen or --ws", sink.ErrInvalidConfig)
	}

	c, err := getContext()
	if err != nil {
		return err
	}
	opts, err := c.Options()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		opts.PortSpec = playPort
	}
	if cmd.Flags().Changed("buffer") {
		opts.BufferDesiredLength = playBuffer
	}
	if cmd.Flags().Changed("latency") {
		opts.LatencyOffset = playLatency
	}

	dev, err := newDevice(c, playBackend)
	if err != nil {
		return err
	}
	if dev.Name() == "wav" && opts.PortSpec == "" {
		if opts.PortSpec, err = defaultRecording(); err != nil {
			return err
		}
	}

	d := sink.NewDriver(dev)
	if err := d.Init(opts); err != nil {
		return err
	}
	defer func() {
		if err := d.Deinit(); err != nil {
			slog.Warn("pcmsink: deinit", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go (&sink.Monitor{Source: d}).Run(ctx)

	switch {
	case playListen != "":
		err = serveTCP(ctx, d, playListen)
	case playWS != "":
		err = serveWS(ctx, d, playWS)
	case generated:
		err = playGenerated(ctx, d)
	default:
		err = playInput(ctx, d, args[0])
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if perr := printStats(d.Stats(), playStats); perr != nil && err == nil {
		err = perr
	}
	return err
}

// playInput plays a file, or stdin for "-", and returns when it has drained.
func playInput(ctx context.Context, d *sink.Driver, name string) error {
	var (
		src  io.Reader
		rate int
	)
	if name == "-" {
		if playRate <= 0 {
			return fmt.Errorf("%w: --rate is required for stdin", sink.ErrInvalidConfig)
		}
		src, rate = os.Stdin, playRate
	} else {
		f, err := codec.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		src, rate = f, f.SampleRate()
	}

	if err := d.Start(rate); err != nil {
		return err
	}
	defer d.Stop()
	return (&sink.Pump{Feeder: d, Source: src, Drain: true, Live: playLive}).Run(ctx)
}

// playGenerated plays --song or --tone at --rate.
func playGenerated(ctx context.Context, d *sink.Driver) error {
	rate := playRate
	if rate <= 0 {
		rate = generatedRate
	}
	var src io.Reader
	if playSong != "" {
		s := songs.ByID(playSong)
		if s == nil {
			return fmt.Errorf("%w: unknown song %q", sink.ErrInvalidConfig, playSong)
		}
		slog.Info("pcmsink: song", "id", s.ID, "name", s.Name)
		src = s.Render(rate, songs.DefaultVolume)
	} else {
		src = songs.Tone(playTone, rate, playToneDur, songs.DefaultVolume)
	}

	if err := d.Start(rate); err != nil {
		return err
	}
	defer d.Stop()
	return (&sink.Pump{Feeder: d, Source: src, Drain: true, Live: playLive}).Run(ctx)
}

// streamHandler plays every network stream in its own session. A device
// failure is fatal and cancels the listener through cancel.
func streamHandler(d *sink.Driver, cancel context.CancelCauseFunc) netin.Handler {
	return netin.HandlerFunc(func(ctx context.Context, s *netin.Stream) error {
		if err := d.Start(s.SampleRate); err != nil {
			if errors.Is(err, sink.ErrDeviceUnavailable) || errors.Is(err, sink.ErrInvalidConfig) {
				cancel(err)
			}
			return err
		}
		defer d.Stop()
		return (&sink.Pump{Feeder: d, Source: s, Drain: true, Live: playLive}).Run(ctx)
	})
}

func serveTCP(ctx context.Context, d *sink.Driver, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pcmsink: listen: %w", err)
	}
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	err = netin.ServeTCP(ctx, ln, streamHandler(d, cancel))
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return err
}

func serveWS(ctx context.Context, d *sink.Driver, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pcmsink: listen: %w", err)
	}
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	srv := &http.Server{
		Handler:     netin.NewWSServer(streamHandler(d, cancel)),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	slog.Info("pcmsink: listening", "network", "ws", "addr", ln.Addr().String())

	select {
	case err = <-errc:
	case <-ctx.Done():
		srv.Close()
		<-errc
		err = nil
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// printStats prints st as a panel for "text" or through cli.Output for
// yaml and json. An empty format prints nothing.
func printStats(st sink.Stats, format string) error {
	switch format {
	case "":
		return nil
	case "text":
		fmt.Print(cli.Panel{
			Styles: cli.NewStyles(cli.DefaultTheme),
			Title:  "Session stats",
			Fields: []cli.Field{
				{Label: "Fed", Value: fmt.Sprintf("%d frames", st.FedFrames)},
				{Label: "Rendered", Value: fmt.Sprintf("%d frames", st.RenderedFrames)},
				{Label: "Overruns", Value: fmt.Sprintf("%d (%d frames dropped)", st.Overruns, st.DroppedFrames), Warn: st.Overruns > 0},
				{Label: "Underruns", Value: fmt.Sprint(st.Underruns), Warn: st.Underruns > 0},
				{Label: "Resample errors", Value: fmt.Sprint(st.ResampleErrors), Warn: st.ResampleErrors > 0},
				{Label: "Short frames", Value: fmt.Sprint(st.ShortFrames), Warn: st.ShortFrames > 0},
			},
		}.Render())
		return nil
	}
	return cli.Output(st, cli.OutputOptions{Format: cli.OutputFormat(format), Indent: "  "})
}

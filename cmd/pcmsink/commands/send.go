package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmsink/pkg/audio/codec"
	"github.com/haivivi/pcmsink/pkg/audio/netin"
	"github.com/haivivi/pcmsink/pkg/audio/pcm"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
)

var (
	sendTCP  string
	sendWS   string
	sendRate int
)

var sendCmd = &cobra.Command{
	Use:   "send <file|->",
	Short: "Stream audio to a pcmsink receiver",
	Long: `Decode a file, or read raw L16 stereo from stdin at --rate, and stream
it to a "pcmsink play --listen" or "pcmsink play --ws" receiver.

Examples:
  pcmsink send song.mp3 --tcp 192.168.1.20:7000
  pcmsink send song.ogg --ws ws://192.168.1.20:7001/`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendTCP, "tcp", "", "receiver TCP address")
	sendCmd.Flags().StringVar(&sendWS, "ws", "", "receiver WebSocket URL")
	sendCmd.Flags().IntVar(&sendRate, "rate", 0, "sample rate of raw stdin input")
	sendCmd.MarkFlagsMutuallyExclusive("tcp", "ws")
	sendCmd.MarkFlagsOneRequired("tcp", "ws")
}

func runSend(cmd *cobra.Command, args []string) error {
	var (
		src  io.Reader
		rate int
	)
	if args[0] == "-" {
		if sendRate <= 0 {
			return fmt.Errorf("%w: --rate is required for stdin", sink.ErrInvalidConfig)
		}
		src, rate = os.Stdin, sendRate
	} else {
		f, err := codec.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		src, rate = f, f.SampleRate()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if sendTCP != "" {
		slog.Info("pcmsink: sending", "addr", sendTCP, "sample_rate", rate)
		return netin.SendTCP(ctx, sendTCP, rate, src)
	}

	conn, err := netin.DialWS(ctx, sendWS, netin.Header{SampleRate: rate, Channels: 2})
	if err != nil {
		return err
	}
	slog.Info("pcmsink: sending", "url", sendWS, "sample_rate", rate)
	buf := make([]byte, pcm.Stereo(rate).BytesInDuration(sink.DefaultPoll*4))
	_, err = io.CopyBuffer(conn, src, buf)
	if cerr := conn.Close(); err == nil {
		err = cerr
	}
	return err
}

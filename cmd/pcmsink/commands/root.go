package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmsink/pkg/audio/sink"
	"github.com/haivivi/pcmsink/pkg/cli"
)

const appName = "pcmsink"

var (
	cfgFile      string
	contextName  string
	verbose      bool
	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "pcmsink",
	Short: "Real-time PCM audio sink",
	Long: `pcmsink streams 16-bit stereo PCM into a real-time audio output.

Audio from a file, stdin, TCP or WebSocket is buffered in a lock-free ring
and resampled to the device rate inside the output callback.

Configuration is stored in ~/.pcmsink/pcmsink/ and supports multiple
contexts, each selecting a backend, a port and the buffer settings.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an error returned by Execute to a process exit code.
// Configuration errors exit with 2, device failures with 3.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, sink.ErrInvalidConfig):
		return 2
	case errors.Is(err, sink.ErrDeviceUnavailable):
		return 3
	}
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "", "config file (default is ~/.pcmsink/pcmsink/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default is current context)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(configCmd)
}

// configErr stores the config load error for deferred reporting.
var configErr error

func initConfig() {
	globalConfig, configErr = cli.LoadConfigWithPath(appName, cfgFile)
}

// getConfig returns the loaded configuration or the deferred load error.
func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		if configErr != nil {
			return nil, fmt.Errorf("%s config: %w", appName, configErr)
		}
		return nil, fmt.Errorf("%s config: not loaded", appName)
	}
	return globalConfig, nil
}

// getContext returns the context to use, resolving from flag or current context.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveContext(contextName)
}

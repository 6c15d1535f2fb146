package commands

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmsink/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage pcmsink configuration.

Configuration is stored in ~/.pcmsink/pcmsink/config.yaml`,
}

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage contexts",
	Long:  `Manage pcmsink contexts, one per output setup.`,
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		names := cfg.ListContexts()
		if len(names) == 0 {
			cli.PrintInfo("No contexts configured.")
			fmt.Println("\nCreate one with:")
			fmt.Println("  pcmsink config context set speakers --backend=portaudio --port=<device>")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tBACKEND\tPORT")
		for _, name := range names {
			ctx, _ := cfg.GetContext(name)
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", current, name,
				valueOrDefault(ctx.Backend, defaultBackend), valueOrDefault(ctx.Port, "(default)"))
		}
		return w.Flush()
	},
}

var contextUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Switched to context %q", args[0])
		return nil
	},
}

var contextSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Create or update a context",
	Long: `Create or update a context with the specified settings.
The context is validated before it is saved.

Examples:
  # Play through a named sound card
  pcmsink config context set studio --backend=portaudio --port=Scarlett --buffer=22050

  # Record to a file with a 20ms clock
  pcmsink config context set record --backend=wav --port=/tmp/out.wav --extra=wav_period=20ms

  # Smoother resampling across callbacks
  pcmsink config context set studio --mode=continuous --quality=very-high`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := args[0]
		ctx, err := cfg.GetContext(name)
		if err != nil {
			ctx = &cli.Context{Name: name}
		}

		flags := cmd.Flags()
		if flags.Changed("backend") {
			ctx.Backend, _ = flags.GetString("backend")
		}
		if flags.Changed("port") {
			ctx.Port, _ = flags.GetString("port")
		}
		if flags.Changed("buffer") {
			v, _ := flags.GetInt("buffer")
			ctx.BufferDesiredLength = &v
		}
		if flags.Changed("latency") {
			ctx.LatencyOffset, _ = flags.GetInt("latency")
		}
		if flags.Changed("mode") {
			ctx.ResampleMode, _ = flags.GetString("mode")
		}
		if flags.Changed("quality") {
			ctx.Quality, _ = flags.GetString("quality")
		}
		if flags.Changed("device-rate") {
			ctx.DeviceRate, _ = flags.GetInt("device-rate")
		}
		if flags.Changed("frames-per-buffer") {
			ctx.FramesPerBuffer, _ = flags.GetInt("frames-per-buffer")
		}
		extras, _ := flags.GetStringToString("extra")
		for k, v := range extras {
			ctx.SetExtra(k, v)
		}

		if _, err := ctx.Options(); err != nil {
			return err
		}
		if _, err := newDevice(ctx, ""); err != nil {
			return err
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q saved", name)
		return nil
	},
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		wasCurrent := args[0] == cfg.CurrentContext
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("Context %q deleted", args[0])
		if wasCurrent {
			cli.PrintWarning("No current context; select one with 'pcmsink config context use <name>'")
		}
		return nil
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show context details",
	Long:  `Show details of a context. If no name is provided, shows the current context.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		var name string
		if len(args) > 0 {
			name = args[0]
		} else {
			if cfg.CurrentContext == "" {
				return fmt.Errorf("no current context set. Use 'pcmsink config context use <name>' to set one")
			}
			name = cfg.CurrentContext
		}
		ctx, err := cfg.GetContext(name)
		if err != nil {
			return err
		}
		opts, err := ctx.Options()
		if err != nil {
			return err
		}

		title := "Context: " + name
		if name == cfg.CurrentContext {
			title += " (current)"
		}
		fields := []cli.Field{
			{Label: "Backend", Value: valueOrDefault(ctx.Backend, defaultBackend)},
			{Label: "Port", Value: valueOrDefault(opts.PortSpec, "(default)")},
			{Label: "Buffer length", Value: fmt.Sprintf("%d frames", opts.BufferDesiredLength)},
			{Label: "Latency offset", Value: fmt.Sprintf("%d frames", opts.LatencyOffset)},
			{Label: "Resample mode", Value: opts.ResampleMode.String()},
			{Label: "Quality", Value: opts.Quality.String()},
			{Label: "Device rate", Value: intOrDefault(ctx.DeviceRate)},
			{Label: "Frames per buffer", Value: intOrDefault(ctx.FramesPerBuffer)},
		}
		for _, k := range slices.Sorted(maps.Keys(ctx.Extra)) {
			fields = append(fields, cli.Field{Label: "Extra " + k, Value: ctx.Extra[k]})
		}
		fmt.Print(cli.Panel{
			Styles: cli.NewStyles(cli.DefaultTheme),
			Title:  title,
			Fields: fields,
			Footer: "Config file: " + cfg.Path(),
		}.Render())
		return nil
	},
}

func init() {
	contextSetCmd.Flags().String("backend", "", "output backend: portaudio, oto or wav")
	contextSetCmd.Flags().String("port", "", "output port (device name, or file for wav)")
	contextSetCmd.Flags().Int("buffer", 0, "desired buffer length in frames")
	contextSetCmd.Flags().Int("latency", 0, "latency offset in frames")
	contextSetCmd.Flags().String("mode", "", "resample mode: oneshot or continuous")
	contextSetCmd.Flags().String("quality", "", "resample quality: quick, low, medium, high, very-high")
	contextSetCmd.Flags().Int("device-rate", 0, "device sample rate (0 for the device default)")
	contextSetCmd.Flags().Int("frames-per-buffer", 0, "portaudio callback size (0 lets PortAudio choose)")
	contextSetCmd.Flags().StringToString("extra", nil, "backend specific key=value settings")

	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextUseCmd)
	contextCmd.AddCommand(contextSetCmd)
	contextCmd.AddCommand(contextDeleteCmd)
	contextCmd.AddCommand(contextShowCmd)

	configCmd.AddCommand(contextCmd)
}

func valueOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func intOrDefault(v int) string {
	if v == 0 {
		return "(default)"
	}
	return strconv.Itoa(v)
}

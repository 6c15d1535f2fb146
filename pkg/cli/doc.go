// Package cli provides the configuration and output helpers of the pcmsink
// command.
//
// Configuration is stored in ~/.pcmsink/<app>/config.yaml and holds named
// contexts, similar to kubectl. A context selects an output backend and port
// and carries the sink settings; Context.Options converts it, reporting bad
// values as sink.ErrInvalidConfig.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("pcmsink")
//	ctx, err := cfg.ResolveContext(name)
//	opts, err := ctx.Options()
//
//	cli.Output(driver.Stats(), cli.OutputOptions{Format: cli.FormatJSON})
package cli

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/haivivi/pcmsink/pkg/audio/portaudio"
	"github.com/haivivi/pcmsink/pkg/cli"
)

var devicesOutput string

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List output backends and PortAudio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if devicesOutput != "" {
			devs, err := portaudio.Devices()
			if err != nil {
				return err
			}
			return cli.Output(devs, cli.OutputOptions{Format: cli.OutputFormat(devicesOutput), Indent: "  "})
		}

		fmt.Println("Backends:")
		for _, name := range backendNames() {
			dev, err := backends[name](&cli.Context{})
			if err != nil {
				return err
			}
			fmt.Printf("  %-10s %s\n", name, dev.Help())
		}
		fmt.Println()
		return portaudio.PrintDevices(os.Stdout)
	},
}

func init() {
	devicesCmd.Flags().StringVarP(&devicesOutput, "output", "o", "", "print PortAudio devices as yaml or json")
}

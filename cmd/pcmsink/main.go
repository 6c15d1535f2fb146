// pcmsink plays 16-bit stereo PCM through a real-time audio output.
//
// Audio is read from a file, from stdin or from the network, resampled to the
// device rate inside the output callback and played through PortAudio, oto
// or a WAV file clock.
//
// Usage:
//
//	pcmsink play song.mp3                 # Play a file with the current context
//	pcmsink play --rate 44100 -           # Play raw L16 stereo from stdin
//	pcmsink play --listen :7000           # Accept TCP streams
//	pcmsink play --ws :7001               # Accept WebSocket streams
//	pcmsink send song.ogg --tcp host:7000 # Stream a file to a receiver
//	pcmsink devices                       # List PortAudio outputs
//	pcmsink config context set studio --backend portaudio --port Scarlett
//
// Configuration is stored in ~/.pcmsink/pcmsink/
package main

import (
	"os"

	"github.com/haivivi/pcmsink/cmd/pcmsink/commands"
	"github.com/haivivi/pcmsink/pkg/cli"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(commands.ExitCode(err))
	}
}

// Package codec opens compressed and container audio files as streams of
// 16-bit little-endian interleaved stereo PCM, the input format of the sink.
//
// Each subpackage wraps one decoding library:
//
//   - wav: github.com/go-audio/wav
//   - aiff: github.com/go-audio/aiff
//   - mp3: github.com/hajimehoshi/go-mp3
//   - vorbis: github.com/jfreymuth/oggvorbis
//
// Mono input is duplicated to both channels. The stream keeps its native
// sample rate; conversion to the device rate happens in the sink.
package codec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/haivivi/pcmsink/pkg/audio/codec/aiff"
	"github.com/haivivi/pcmsink/pkg/audio/codec/mp3"
	"github.com/haivivi/pcmsink/pkg/audio/codec/vorbis"
	"github.com/haivivi/pcmsink/pkg/audio/codec/wav"
)

// ErrUnsupported is returned by Open for unknown file extensions.
var ErrUnsupported = errors.New("codec: unsupported format")

// Source is a decoded stereo L16 stream.
type Source interface {
	io.ReadCloser
	SampleRate() int
}

var (
	_ Source = (*wav.Stream)(nil)
	_ Source = (*aiff.Stream)(nil)
	_ Source = (*mp3.Stream)(nil)
	_ Source = (*vorbis.Stream)(nil)
)

// Formats lists the extensions Open understands.
func Formats() []string {
	return []string{".wav", ".aif", ".aiff", ".mp3", ".ogg", ".oga"}
}

// Open opens path and picks a decoder by extension. Closing the Source
// closes the file.
func Open(path string) (Source, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav", ".aif", ".aiff", ".mp3", ".ogg", ".oga":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	var src Source
	switch ext {
	case ".wav":
		src, err = wav.NewStream(f)
	case ".aif", ".aiff":
		src, err = aiff.NewStream(f)
	case ".mp3":
		src, err = mp3.NewStream(f)
	default:
		src, err = vorbis.NewStream(f)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("codec: %s: %w", filepath.Base(path), err)
	}
	return src, nil
}

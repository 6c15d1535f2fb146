package codec

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/haivivi/pcmsink/pkg/audio/codec/aiff"
	"github.com/haivivi/pcmsink/pkg/audio/codec/wav"
)

func TestOpenWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.WAV")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := wav.NewWriter(f, 16000)
	if err := w.WriteSamples([]int16{1, -1, 2, -2}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	if src.SampleRate() != 16000 {
		t.Errorf("SampleRate() = %d", src.SampleRate())
	}
	data, err := io.ReadAll(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Errorf("read %d bytes, want 8", len(data))
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "song.flac")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Open(.flac) = %v, want ErrUnsupported", err)
	}
	if _, err := Open(filepath.Join(dir, "missing.mp3")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) = %v, want os.ErrNotExist", err)
	}
	bad := filepath.Join(dir, "bad.wav")
	if err := os.WriteFile(bad, []byte("garbage garbage garbage garbage garbage garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(bad); !errors.Is(err, wav.ErrInvalidFile) {
		t.Errorf("Open(bad.wav) = %v, want wav.ErrInvalidFile", err)
	}
	badAIFF := filepath.Join(dir, "bad.aiff")
	if err := os.WriteFile(badAIFF, []byte("FORM garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(badAIFF); !errors.Is(err, aiff.ErrInvalidFile) {
		t.Errorf("Open(bad.aiff) = %v, want aiff.ErrInvalidFile", err)
	}
}

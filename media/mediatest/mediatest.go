// Package mediatest writes small audio fixtures for tests.
package mediatest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"

	"github.com/d1nch8g/viors/media"
)

// SampleRate is the rate of generated fixtures.
const SampleRate beep.SampleRate = 8000

// WriteWAV writes a silent mono WAV of the given length into dir and returns it
// as a resource.
func WriteWAV(t testing.TB, dir, name string, length time.Duration) media.Resource {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	format := beep.Format{SampleRate: SampleRate, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(SampleRate.N(length)), format); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	return media.Resource(path)
}

// WriteGarbage writes a file with an audio extension that cannot be decoded.
func WriteGarbage(t testing.TB, dir, name string) media.Resource {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return media.Resource(path)
}

package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// ErrUnsupportedFormat is returned for files that are neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Clip is an opened, decodable audio resource.
type Clip struct {
	Streamer beep.Streamer
	Format   beep.Format
	// Length is the clip length in sample frames.
	Length int

	closer io.Closer
}

// Duration returns the clip length as wall-clock time.
func (c *Clip) Duration() time.Duration {
	if c.Length <= 0 || c.Format.SampleRate <= 0 {
		return 0
	}
	return c.Format.SampleRate.D(c.Length)
}

// Close releases the underlying file, if any.
func (c *Clip) Close() error {
	if c.closer != nil {
		err := c.closer.Close()
		c.closer = nil
		return err
	}
	return nil
}

// Open decodes the header of a resource and returns a streamable clip.
// The caller must Close the clip.
func Open(r Resource) (*Clip, error) {
	if r.IsBuiltin() {
		return openBuiltin(r)
	}

	f, err := os.Open(string(r))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.Name(), err)
	}

	var clip *Clip
	switch strings.ToLower(filepath.Ext(string(r))) {
	case ".wav", ".wave":
		clip, err = openWAV(f)
	case ".mp3":
		clip, err = openMP3(f)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", r.Name(), err)
	}
	return clip, nil
}

// Probe returns the duration of a resource without playing it.
func Probe(r Resource) (time.Duration, error) {
	clip, err := Open(r)
	if err != nil {
		return 0, err
	}
	defer clip.Close()
	return clip.Duration(), nil
}

func openWAV(f *os.File) (*Clip, error) {
	s, format, err := wav.Decode(f)
	if err != nil {
		return nil, err
	}
	return &Clip{
		Streamer: s,
		Format:   format,
		Length:   s.Len(),
		closer:   s,
	}, nil
}

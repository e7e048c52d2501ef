package media

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/generators"
)

const (
	// ToneFrequency is the VOX trigger frequency in Hz.
	ToneFrequency = 1900
	// ToneLength is the length of the generated trigger tone.
	ToneLength = time.Second

	toneSampleRate beep.SampleRate = 44100
	// -6 dB, leaves headroom on the transmitter audio input.
	toneGain = -0.5
)

func openBuiltin(r Resource) (*Clip, error) {
	switch r {
	case Tone1900:
		return NewTone(ToneFrequency, ToneLength)
	default:
		return nil, fmt.Errorf("unknown builtin resource %q: %w", string(r), ErrUnsupportedFormat)
	}
}

// NewTone generates a sine clip of the given frequency and length.
func NewTone(freq float64, length time.Duration) (*Clip, error) {
	sine, err := generators.SineTone(toneSampleRate, freq)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %v Hz tone: %w", freq, err)
	}
	n := toneSampleRate.N(length)
	return &Clip{
		Streamer: beep.Take(n, &effects.Gain{Streamer: sine, Gain: toneGain}),
		Format: beep.Format{
			SampleRate:  toneSampleRate,
			NumChannels: 1,
			Precision:   2,
		},
		Length: n,
	}, nil
}

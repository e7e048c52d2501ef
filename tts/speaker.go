package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// ErrNoAudio is returned when the engine finished without producing audio.
var ErrNoAudio = errors.New("synthesizer returned no audio")

// StreamPlayer renders decoded audio.
type StreamPlayer interface {
	PlayStream(ctx context.Context, s beep.Streamer, format beep.Format) error
}

// Speaker synthesizes text and plays it, returning once playback completes.
type Speaker struct {
	synth   Synthesizer
	out     StreamPlayer
	options SynthesisOptions
}

func NewSpeaker(synth Synthesizer, out StreamPlayer, options SynthesisOptions) *Speaker {
	return &Speaker{
		synth:   synth,
		out:     out,
		options: options,
	}
}

// Speak blocks until the utterance has been played or ctx is cancelled.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	audioData := make(chan []byte, 100)
	errc := make(chan error, 1)

	go func() {
		errc <- s.synth.SynthesizeToStreamWithContext(ctx, text, s.options, audioData)
	}()

	var buf bytes.Buffer
	for chunk := range audioData {
		buf.Write(chunk)
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("failed to synthesize: %w", err)
	}
	if buf.Len() == 0 {
		return ErrNoAudio
	}

	stream, format, err := wav.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to decode synthesized audio: %w", err)
	}
	defer stream.Close()

	return s.out.PlayStream(ctx, stream, format)
}

func (s *Speaker) Close() error {
	return s.synth.Close()
}

package sound

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gordonklaus/portaudio"
)

type PlayerConfig struct {
	SampleRate      float64
	FramesPerBuffer int
	OutputChannels  int
}

// PortaudioSink plays streams through the default PortAudio output device.
type PortaudioSink struct {
	mu          sync.Mutex
	stream      *portaudio.Stream
	audioBuffer []float32
	frames      [][2]float64
	config      PlayerConfig
}

// Ensure PortaudioSink implements Sink interface
var _ Sink = (*PortaudioSink)(nil)

func NewPortaudioSink(config PlayerConfig) *PortaudioSink {
	if config.OutputChannels < 1 {
		config.OutputChannels = 1
	}
	if config.OutputChannels > 2 {
		config.OutputChannels = 2
	}
	return &PortaudioSink{
		config:      config,
		audioBuffer: make([]float32, config.FramesPerBuffer*config.OutputChannels),
		frames:      make([][2]float64, config.FramesPerBuffer),
	}
}

func GetDefaultConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate:      44100,
		FramesPerBuffer: 1024,
		OutputChannels:  1,
	}
}

func (p *PortaudioSink) Initialize() error {
	return portaudio.Initialize()
}

func (p *PortaudioSink) Open() error {
	stream, err := portaudio.OpenDefaultStream(
		0,
		p.config.OutputChannels,
		p.config.SampleRate,
		p.config.FramesPerBuffer,
		p.audioBuffer,
	)
	if err != nil {
		return err
	}
	p.stream = stream
	return nil
}

func (p *PortaudioSink) SampleRate() beep.SampleRate {
	return beep.SampleRate(p.config.SampleRate)
}

func (p *PortaudioSink) Play(ctx context.Context, s beep.Streamer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return errors.New("stream not opened")
	}

	if err := p.stream.Start(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if err := p.stream.Abort(); err != nil {
				log.Printf("Error aborting audio stream: %v", err)
			}
			return ctx.Err()
		default:
		}

		n, ok := s.Stream(p.frames)
		if n > 0 {
			p.fillBuffer(n)
			if err := p.stream.Write(); err != nil {
				log.Printf("Error writing audio: %v", err)
			}
		}
		if !ok {
			break
		}
	}

	// Stop lets the queued buffers play out
	if err := p.stream.Stop(); err != nil {
		return err
	}
	return s.Err()
}

// fillBuffer converts n stereo frames into the interleaved device buffer,
// zero-filling the remainder.
func (p *PortaudioSink) fillBuffer(n int) {
	channels := p.config.OutputChannels
	for i := range p.frames {
		for c := 0; c < channels; c++ {
			var v float64
			if i < n {
				if channels == 1 {
					v = (p.frames[i][0] + p.frames[i][1]) / 2
				} else {
					v = p.frames[i][c]
				}
			}
			p.audioBuffer[i*channels+c] = float32(v)
		}
	}
}

func (p *PortaudioSink) Close() error {
	if p.stream != nil {
		return p.stream.Close()
	}
	return nil
}

func (p *PortaudioSink) Terminate() {
	portaudio.Terminate()
}

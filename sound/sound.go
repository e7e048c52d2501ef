package sound

import (
	"context"

	"github.com/gopxl/beep/v2"
)

// Sink defines the interface for an audio output device
type Sink interface {
	// SampleRate is the rate every stream passed to Play must have
	SampleRate() beep.SampleRate

	// Play renders the stream and blocks until it is drained or ctx is done.
	// On cancellation the device is released without draining queued audio.
	Play(ctx context.Context, s beep.Streamer) error
}

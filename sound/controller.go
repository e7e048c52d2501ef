package sound

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/d1nch8g/viors/media"
)

const (
	// DefaultPrebuffer is how much of the second clip of a gapless pair is
	// decoded before output starts.
	DefaultPrebuffer = 250 * time.Millisecond

	resampleQuality = 4
)

// Controller plays media resources on a sink, one at a time or as a gapless pair.
// Playback failures never reach the caller: they are logged and reported as a
// zero duration.
type Controller struct {
	sink      Sink
	prebuffer time.Duration
	open      func(media.Resource) (*media.Clip, error)
}

func NewController(sink Sink) *Controller {
	return &Controller{
		sink:      sink,
		prebuffer: DefaultPrebuffer,
		open:      media.Open,
	}
}

// Probe returns the duration of a resource, or 0 if it cannot be decoded.
func (c *Controller) Probe(res media.Resource) time.Duration {
	clip, err := c.open(res)
	if err != nil {
		log.Printf("Error probing %s: %v", res.Name(), err)
		return 0
	}
	defer clip.Close()
	return clip.Duration()
}

// PlayOne plays a single resource to completion and returns its duration.
func (c *Controller) PlayOne(ctx context.Context, res media.Resource) time.Duration {
	clip, err := c.open(res)
	if err != nil {
		log.Printf("Error opening %s: %v", res.Name(), err)
		return 0
	}
	defer clip.Close()

	if err := c.sink.Play(ctx, c.resample(clip.Streamer, clip.Format)); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Error playing %s: %v", res.Name(), err)
		}
		return 0
	}
	if ctx.Err() != nil {
		return 0
	}
	return clip.Duration()
}

// PlayGaplessPair plays first and second back-to-back through a single output
// stream. Both are opened and the head of second is decoded before output
// starts, so no silence is inserted at the boundary.
func (c *Controller) PlayGaplessPair(ctx context.Context, first, second media.Resource) time.Duration {
	a, err := c.open(first)
	if err != nil {
		log.Printf("Error opening %s, playing %s alone: %v", first.Name(), second.Name(), err)
		return c.PlayOne(ctx, second)
	}
	defer a.Close()

	b, err := c.open(second)
	if err != nil {
		log.Printf("Error opening %s, playing %s alone: %v", second.Name(), first.Name(), err)
		if err := c.sink.Play(ctx, c.resample(a.Streamer, a.Format)); err != nil || ctx.Err() != nil {
			return 0
		}
		return a.Duration()
	}
	defer b.Close()

	head := c.resample(a.Streamer, a.Format)
	tail := c.resample(prebuffer(b.Streamer, b.Format, c.prebuffer), b.Format)

	if err := c.sink.Play(ctx, beep.Seq(head, tail)); err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Error playing %s + %s: %v", first.Name(), second.Name(), err)
		}
		return 0
	}
	if ctx.Err() != nil {
		return 0
	}
	return a.Duration() + b.Duration()
}

// PlayStream plays an already decoded stream, converting it to the sink rate.
func (c *Controller) PlayStream(ctx context.Context, s beep.Streamer, format beep.Format) error {
	return c.sink.Play(ctx, c.resample(s, format))
}

func (c *Controller) resample(s beep.Streamer, format beep.Format) beep.Streamer {
	target := c.sink.SampleRate()
	if format.SampleRate == target || format.SampleRate <= 0 {
		return s
	}
	return beep.Resample(resampleQuality, format.SampleRate, target, s)
}

// prebuffer decodes the first d of s into memory and returns a streamer that
// serves the buffered head followed by the rest of s.
func prebuffer(s beep.Streamer, format beep.Format, d time.Duration) beep.Streamer {
	if d <= 0 {
		return s
	}
	buf := beep.NewBuffer(format)
	buf.Append(beep.Take(format.SampleRate.N(d), s))
	return beep.Seq(buf.Streamer(0, buf.Len()), s)
}

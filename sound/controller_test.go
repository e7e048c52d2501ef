package sound

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/d1nch8g/viors/media"
	"github.com/d1nch8g/viors/media/mediatest"
)

// fakeSink drains streams instantly, or blocks until cancelled when hold is set.
type fakeSink struct {
	mu     sync.Mutex
	rate   beep.SampleRate
	hold   bool
	calls  int
	frames []int
}

func (f *fakeSink) SampleRate() beep.SampleRate {
	return f.rate
}

func (f *fakeSink) Play(ctx context.Context, s beep.Streamer) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.hold {
		<-ctx.Done()
		return ctx.Err()
	}

	buf := make([][2]float64, 512)
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, ok := s.Stream(buf)
		total += n
		if !ok {
			break
		}
	}

	f.mu.Lock()
	f.frames = append(f.frames, total)
	f.mu.Unlock()
	return s.Err()
}

func newFakeSink() *fakeSink {
	return &fakeSink{rate: mediatest.SampleRate}
}

// TestPlayOneReturnsDuration checks a decodable file reports its length.
func TestPlayOneReturnsDuration(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink)
	res := mediatest.WriteWAV(t, t.TempDir(), "img.wav", 2*time.Second)

	got := c.PlayOne(context.Background(), res)
	if got != 2*time.Second {
		t.Fatalf("PlayOne() = %v, want 2s", got)
	}
	if len(sink.frames) != 1 || sink.frames[0] != mediatest.SampleRate.N(2*time.Second) {
		t.Fatalf("sink frames = %v", sink.frames)
	}
}

// TestPlayOneBadFileReturnsZero checks decode failures are absorbed.
func TestPlayOneBadFileReturnsZero(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink)
	res := mediatest.WriteGarbage(t, t.TempDir(), "broken.wav")

	if got := c.PlayOne(context.Background(), res); got != 0 {
		t.Fatalf("PlayOne() = %v, want 0", got)
	}
	if sink.calls != 0 {
		t.Fatalf("sink called %d times for undecodable file", sink.calls)
	}
}

// TestPlayOneCancelled checks cancellation unblocks playback and reports nothing.
func TestPlayOneCancelled(t *testing.T) {
	sink := newFakeSink()
	sink.hold = true
	c := NewController(sink)
	res := mediatest.WriteWAV(t, t.TempDir(), "img.wav", time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan time.Duration, 1)
	go func() { done <- c.PlayOne(ctx, res) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case got := <-done:
		if got != 0 {
			t.Fatalf("cancelled PlayOne() = %v, want 0", got)
		}
	case <-time.After(time.Second):
		t.Fatal("PlayOne did not return after cancel")
	}
}

// TestPlayGaplessPairSingleStream checks both clips go through one Play call
// back-to-back with no inserted frames.
func TestPlayGaplessPairSingleStream(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink)
	dir := t.TempDir()
	first := mediatest.WriteWAV(t, dir, "tone.wav", time.Second)
	second := mediatest.WriteWAV(t, dir, "img.wav", 3*time.Second)

	got := c.PlayGaplessPair(context.Background(), first, second)
	if got != 4*time.Second {
		t.Fatalf("PlayGaplessPair() = %v, want 4s", got)
	}
	if sink.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", sink.calls)
	}
	want := mediatest.SampleRate.N(4 * time.Second)
	if sink.frames[0] != want {
		t.Fatalf("frames = %d, want %d", sink.frames[0], want)
	}
}

// TestPlayGaplessPairWithTone checks the generated tone pairs with a file.
func TestPlayGaplessPairWithTone(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink)
	img := mediatest.WriteWAV(t, t.TempDir(), "img.wav", 2*time.Second)

	got := c.PlayGaplessPair(context.Background(), media.Tone1900, img)
	if got != media.ToneLength+2*time.Second {
		t.Fatalf("PlayGaplessPair() = %v, want %v", got, media.ToneLength+2*time.Second)
	}
	if sink.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", sink.calls)
	}
}

// TestPlayGaplessPairSecondBroken falls back to the first clip alone.
func TestPlayGaplessPairSecondBroken(t *testing.T) {
	sink := newFakeSink()
	c := NewController(sink)
	dir := t.TempDir()
	first := mediatest.WriteWAV(t, dir, "tone.wav", time.Second)
	second := mediatest.WriteGarbage(t, dir, "img.wav")

	if got := c.PlayGaplessPair(context.Background(), first, second); got != time.Second {
		t.Fatalf("PlayGaplessPair() = %v, want 1s", got)
	}
}

func TestProbe(t *testing.T) {
	c := NewController(newFakeSink())
	dir := t.TempDir()

	if got := c.Probe(mediatest.WriteWAV(t, dir, "a.wav", 750*time.Millisecond)); got != 750*time.Millisecond {
		t.Fatalf("Probe() = %v, want 750ms", got)
	}
	if got := c.Probe(mediatest.WriteGarbage(t, dir, "b.wav")); got != 0 {
		t.Fatalf("Probe(bad) = %v, want 0", got)
	}
}

func TestPrebufferPreservesSamples(t *testing.T) {
	format := beep.Format{SampleRate: mediatest.SampleRate, NumChannels: 1, Precision: 2}
	n := mediatest.SampleRate.N(time.Second)

	s := prebuffer(beep.Silence(n), format, 100*time.Millisecond)
	buf := make([][2]float64, 300)
	total := 0
	for {
		k, ok := s.Stream(buf)
		total += k
		if !ok {
			break
		}
	}
	if total != n {
		t.Fatalf("streamed %d frames, want %d", total, n)
	}
}

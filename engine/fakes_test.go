package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/d1nch8g/viors/config"
	"github.com/d1nch8g/viors/media"
)

type fakePlayer struct {
	mu        sync.Mutex
	durations map[media.Resource]time.Duration
	fallback  time.Duration
	one       []media.Resource
	pairs     [][2]media.Resource
}

func (p *fakePlayer) Probe(res media.Resource) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.durations[res]; ok {
		return d
	}
	return p.fallback
}

func (p *fakePlayer) PlayOne(ctx context.Context, res media.Resource) time.Duration {
	d := p.Probe(res)
	p.mu.Lock()
	p.one = append(p.one, res)
	p.mu.Unlock()
	return d
}

func (p *fakePlayer) PlayGaplessPair(ctx context.Context, first, second media.Resource) time.Duration {
	d := p.Probe(first) + p.Probe(second)
	p.mu.Lock()
	p.pairs = append(p.pairs, [2]media.Resource{first, second})
	p.mu.Unlock()
	return d
}

type fakeAnnouncer struct {
	mu      sync.Mutex
	display time.Duration
	calls   int
}

func (a *fakeAnnouncer) Duration(t config.Transmission) time.Duration {
	return a.display
}

func (a *fakeAnnouncer) Announce(ctx context.Context, t config.Transmission) time.Duration {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return a.display
}

// recorder collects published states and cancels the run after limit phases.
type recorder struct {
	mu     sync.Mutex
	states []State
	limit  int
	cancel context.CancelFunc
}

func (r *recorder) onChange(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
	if !s.Idle() && r.limit > 0 && len(r.states) == r.limit {
		r.cancel()
	}
}

func (r *recorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

type sleepLog struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func rotation(n int) []media.Resource {
	out := make([]media.Resource, n)
	for i := range out {
		out[i] = media.Resource(fmt.Sprintf("/sstv/img_%02d.wav", i))
	}
	return out
}

// runFor starts t on a scheduler with instant sleeps, stops it after limit
// phases and returns everything that was published.
func runFor(t *testing.T, s *Scheduler, tr config.Transmission, limit int) ([]State, *sleepLog) {
	t.Helper()

	sl := &sleepLog{}
	s.sleep = sl.sleep

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rec := &recorder{limit: limit, cancel: cancel}

	run, err := s.Start(ctx, tr, rec.onChange)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
	if err := run.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return rec.snapshot(), sl
}

package engine

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultSampleInterval gives roughly 30 progress samples per second.
	DefaultSampleInterval = 33 * time.Millisecond

	minProgressSpan = 100 * time.Millisecond
)

// publisher serializes callbacks of one run and drops everything after Idle.
type publisher struct {
	mu         sync.Mutex
	closed     bool
	onChange   func(State)
	onProgress func(*Phase, float64)
}

func (p *publisher) phase(ph *Phase) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	if p.onChange != nil {
		p.onChange(State{Phase: ph})
	}
	return true
}

func (p *publisher) progress(ph *Phase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.onProgress == nil {
		return
	}
	p.onProgress(ph, ph.Progress())
}

func (p *publisher) idle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.onChange != nil {
		p.onChange(State{})
	}
}

// reporter drives the observable progress of the current phase. Its sampler
// never gates the scheduler: a new phase simply replaces the previous one.
type reporter struct {
	pub      *publisher
	interval time.Duration

	current *Phase
	stop    context.CancelFunc
}

func newReporter(pub *publisher, interval time.Duration) *reporter {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	return &reporter{pub: pub, interval: interval}
}

// runPhase publishes a new active phase and starts sampling its progress.
func (r *reporter) runPhase(ctx context.Context, kind Kind, total time.Duration, label string) *Phase {
	r.supersede(true)

	p := newPhase(kind, total, label)
	r.current = p
	if !r.pub.phase(p) {
		return p
	}

	sctx, stop := context.WithCancel(ctx)
	r.stop = stop
	go r.sample(sctx, p)
	return p
}

// supersede stops sampling the current phase. When the phase ended normally
// its progress is completed first.
func (r *reporter) supersede(completed bool) {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	if r.current != nil && completed && r.current.Progress() < 1 {
		r.current.advance(1)
		r.pub.progress(r.current)
	}
	r.current = nil
}

func (r *reporter) sample(ctx context.Context, p *Phase) {
	span := p.Total
	if span < minProgressSpan {
		span = minProgressSpan
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		if ctx.Err() != nil {
			return
		}
		p.advance(float64(time.Since(start)) / float64(span))
		r.pub.progress(p)
		if p.Progress() >= 1 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

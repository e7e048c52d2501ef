package engine

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// Kind identifies what a phase is doing.
type Kind int

const (
	KindImage Kind = iota
	KindWait
	KindAnnouncement
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindWait:
		return "wait"
	case KindAnnouncement:
		return "announcement"
	default:
		return "unknown"
	}
}

// Labels published with wait and announcement phases.
const (
	LabelNextImage        = "Next: Image"
	LabelNextAnnouncement = "Next: Announcement"
	LabelAnnouncement     = "Announcement"
)

// Phase is one step of a transmission. Kind, Total and Label are fixed at
// creation; progress is updated while the phase is live.
type Phase struct {
	Kind  Kind
	Total time.Duration
	Label string

	progress atomic.Uint64
	done     chan struct{}
	doneOnce sync.Once
}

func newPhase(kind Kind, total time.Duration, label string) *Phase {
	return &Phase{
		Kind:  kind,
		Total: total,
		Label: label,
		done:  make(chan struct{}),
	}
}

// Progress returns the phase progress in [0, 1].
func (p *Phase) Progress() float64 {
	return math.Float64frombits(p.progress.Load())
}

// Done is closed once progress reaches 1.
func (p *Phase) Done() <-chan struct{} {
	return p.done
}

// advance raises progress to v. Lower values are ignored so observers never
// see progress go backwards.
func (p *Phase) advance(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	for {
		old := p.progress.Load()
		if v <= math.Float64frombits(old) {
			break
		}
		if p.progress.CompareAndSwap(old, math.Float64bits(v)) {
			break
		}
	}
	if p.Progress() >= 1 {
		p.doneOnce.Do(func() { close(p.done) })
	}
}

// State is what the scheduler publishes: Idle when Phase is nil.
type State struct {
	Phase *Phase
}

func (s State) Idle() bool {
	return s.Phase == nil
}

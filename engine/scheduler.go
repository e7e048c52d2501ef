package engine

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d1nch8g/viors/config"
	"github.com/d1nch8g/viors/media"
)

// minToneDuration is the shortest tone length shown for a tone+image phase.
const minToneDuration = 900 * time.Millisecond

// Player plays rotation images. Failures are reported as a zero duration.
type Player interface {
	PlayOne(ctx context.Context, res media.Resource) time.Duration
	PlayGaplessPair(ctx context.Context, first, second media.Resource) time.Duration
	Probe(res media.Resource) time.Duration
}

// Announcer runs the voice phase.
type Announcer interface {
	// Duration is the length to display, known before the announcement starts
	Duration(t config.Transmission) time.Duration
	Announce(ctx context.Context, t config.Transmission) time.Duration
}

// Options tune a Scheduler. Zero values select defaults.
type Options struct {
	// Tone is played gaplessly before each image when PrependTone is set
	Tone media.Resource
	// SampleInterval is the progress sampling period
	SampleInterval time.Duration
	// OnProgress receives every progress sample of the live phase
	OnProgress func(p *Phase, progress float64)
}

// Scheduler drives transmissions. At most one run is active; starting a new
// one cancels and releases the previous run first.
type Scheduler struct {
	player    Player
	announcer Announcer
	opts      Options
	sleep     func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	current *Run
}

func NewScheduler(player Player, announcer Announcer, opts Options) *Scheduler {
	if opts.Tone == "" {
		opts.Tone = media.Tone1900
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	return &Scheduler{
		player:    player,
		announcer: announcer,
		opts:      opts,
		sleep:     sleepContext,
	}
}

// Run is a handle to one active transmission.
type Run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// ID identifies the run in logs.
func (r *Run) ID() string {
	return r.id
}

// Cancel stops the run. It does not wait; use Wait for that.
func (r *Run) Cancel() {
	r.cancel()
}

// Done is closed after the run has published Idle and released its resources.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run ends. Cancellation is not an error.
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// Start validates t and begins transmitting it. onChange receives every phase
// in order, then a final Idle state. Callbacks must not call Start or Stop.
func (s *Scheduler) Start(ctx context.Context, t config.Transmission, onChange func(State)) (*Run, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		log.Printf("Superseding transmission %s", s.current.id)
		s.current.Cancel()
		<-s.current.done
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.current = run

	pub := &publisher{onChange: onChange, onProgress: s.opts.OnProgress}
	go func() {
		defer close(run.done)
		defer cancel()

		rep := newReporter(pub, s.opts.SampleInterval)
		s.transmit(runCtx, run.id, t, rep)

		rep.supersede(false)
		pub.idle()

		if err := runCtx.Err(); err != nil && !errors.Is(err, context.Canceled) {
			run.err = err
		}
		log.Printf("Transmission %s stopped", run.id)
	}()

	log.Printf("Transmission %s started: %d files, cooldown %ds, announce every %d, shuffle %t, tone %t",
		run.id, len(t.AudioFiles), t.CooldownSeconds, t.AnnounceEvery, t.Shuffle, t.PrependTone)
	return run, nil
}

// Stop cancels the active run, if any, and waits for it to release resources.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.Cancel()
	<-s.current.done
	s.current = nil
}

// transmit runs the phase cycle until ctx is cancelled.
func (s *Scheduler) transmit(ctx context.Context, id string, t config.Transmission, rep *reporter) {
	order := Order(t.AudioFiles, t.Shuffle)
	cooldown := time.Duration(t.CooldownSeconds) * time.Second

	var toneDur time.Duration
	if t.PrependTone {
		toneDur = max(s.player.Probe(s.opts.Tone), minToneDuration)
	}

	index := 0
	sinceAnnouncement := 0
	for ctx.Err() == nil {
		image := order[index]
		imageDur := s.player.Probe(image)
		if imageDur == 0 {
			log.Printf("Transmission %s: %s has no playable audio", id, image.Name())
		}

		if t.PrependTone {
			rep.runPhase(ctx, KindImage, toneDur+imageDur, image.Name())
			s.player.PlayGaplessPair(ctx, s.opts.Tone, image)
		} else {
			rep.runPhase(ctx, KindImage, imageDur, image.Name())
			s.player.PlayOne(ctx, image)
		}
		if ctx.Err() != nil {
			return
		}
		sinceAnnouncement++

		announceDue := t.AnnounceEvery > 0 && sinceAnnouncement == t.AnnounceEvery

		label := LabelNextImage
		if announceDue {
			label = LabelNextAnnouncement
		}
		rep.runPhase(ctx, KindWait, cooldown, label)
		if err := s.sleep(ctx, cooldown); err != nil {
			return
		}

		if announceDue {
			sinceAnnouncement = 0
			log.Printf("Transmission %s: announcement after %s", id, image.Name())

			rep.runPhase(ctx, KindAnnouncement, s.announcer.Duration(t), LabelAnnouncement)
			s.announcer.Announce(ctx, t)
			if ctx.Err() != nil {
				return
			}

			rep.runPhase(ctx, KindWait, cooldown, LabelNextImage)
			if err := s.sleep(ctx, cooldown); err != nil {
				return
			}
		}

		index = (index + 1) % len(order)
	}
}

// Order returns the play order for one run: the files as given, or a single
// random permutation of them.
func Order(files []media.Resource, shuffle bool) []media.Resource {
	order := append([]media.Resource(nil), files...)
	if shuffle {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}

// sleepContext blocks for d of wall-clock time or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

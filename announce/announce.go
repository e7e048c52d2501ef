// Package announce produces the voice phase of a transmission: either a fixed
// recording or a synthesized phrase.
package announce

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/d1nch8g/viors/config"
	"github.com/d1nch8g/viors/media"
)

const (
	// DefaultPhrase is spoken when synthesis is selected but no phrase was set.
	DefaultPhrase = "TTS was not configured"
	// DefaultSettle is the pause after the engine reports speech completion.
	DefaultSettle = 500 * time.Millisecond

	// 150 words per minute
	wordsPerSecond = 2.5
	minEstimate    = 500 * time.Millisecond
)

// Player plays recorded announcements.
type Player interface {
	PlayOne(ctx context.Context, res media.Resource) time.Duration
	Probe(res media.Resource) time.Duration
}

// Speaker synthesizes and plays text, blocking until the engine is done.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Announcer runs announcement phases. A nil speaker means the speech engine is
// unavailable and synthesized announcements are silent.
type Announcer struct {
	player  Player
	speaker Speaker
	settle  time.Duration
}

func NewAnnouncer(player Player, speaker Speaker, settle time.Duration) *Announcer {
	if settle == 0 {
		settle = DefaultSettle
	}
	return &Announcer{
		player:  player,
		speaker: speaker,
		settle:  settle,
	}
}

// Estimate returns the display duration of a phrase at 150 words per minute,
// floored at 500ms.
func Estimate(text string) time.Duration {
	words := len(strings.Fields(text))
	ms := math.Round(float64(words) / wordsPerSecond * 1000)
	d := time.Duration(ms) * time.Millisecond
	if d < minEstimate {
		return minEstimate
	}
	return d
}

// SpeechAvailable reports whether synthesized announcements will be audible.
func (a *Announcer) SpeechAvailable() bool {
	return a.speaker != nil
}

// Duration returns the duration to display for the next announcement of t.
// It does not depend on when the engine actually finishes speaking.
func (a *Announcer) Duration(t config.Transmission) time.Duration {
	switch {
	case t.UseExternalAnnouncement:
		return a.player.Probe(t.AnnouncementAudio)
	case a.speaker == nil:
		return 0
	default:
		return Estimate(phrase(t))
	}
}

// Announce plays the announcement of t and blocks until it has finished or ctx
// is cancelled. Failures are logged and never returned: the phase always
// completes so the rotation keeps its timing.
func (a *Announcer) Announce(ctx context.Context, t config.Transmission) time.Duration {
	if t.UseExternalAnnouncement {
		return a.player.PlayOne(ctx, t.AnnouncementAudio)
	}

	if a.speaker == nil {
		log.Printf("Speech engine unavailable, announcement is silent")
		return 0
	}

	text := phrase(t)
	if err := a.speaker.Speak(ctx, text); err != nil {
		if ctx.Err() != nil {
			return 0
		}
		if !errors.Is(err, context.Canceled) {
			log.Printf("Speech synthesis failed, announcement is silent: %v", err)
		}
	}

	timer := time.NewTimer(a.settle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0
	case <-timer.C:
	}
	return Estimate(text)
}

func phrase(t config.Transmission) string {
	if strings.TrimSpace(t.AnnouncementPhrase) == "" {
		return DefaultPhrase
	}
	return t.AnnouncementPhrase
}

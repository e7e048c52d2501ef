package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/d1nch8g/viors/media"
)

// MinAudioFiles is the smallest rotation a transmission may use.
const MinAudioFiles = 12

var (
	ErrTooFewFiles              = fmt.Errorf("at least %d audio files are required", MinAudioFiles)
	ErrInvalidCooldown          = errors.New("cooldown must be a non-negative integer")
	ErrInvalidAnnounceEvery     = errors.New("announcement interval must be a positive integer")
	ErrMissingAnnouncementAudio = errors.New("announcement audio is not selected")
)

// ValidationError reports the first unmet requirement of a transmission.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Transmission is a validated beacon configuration. Treat it as immutable.
type Transmission struct {
	AudioFiles              []media.Resource `json:"audio"`
	UseExternalAnnouncement bool             `json:"ttsExt"`
	AnnouncementAudio       media.Resource   `json:"ttsUri,omitempty"`
	// AnnounceEvery is 0 when announcements are disabled
	AnnounceEvery      int    `json:"speakEvery,omitempty"`
	CooldownSeconds    int    `json:"cooldown"`
	Shuffle            bool   `json:"shuffle"`
	AnnouncementPhrase string `json:"ttsPhrase,omitempty"`
	PrependTone        bool   `json:"voxTone"`
}

// Fields are the raw values entered by the operator.
type Fields struct {
	AudioFiles              []media.Resource
	Cooldown                string
	Shuffle                 bool
	Announce                bool
	AnnounceEvery           string
	UseExternalAnnouncement bool
	AnnouncementAudio       media.Resource
	Phrase                  string
	PrependTone             bool
}

// Build validates raw fields and returns a transmission, or a *ValidationError
// for the first failed check.
func Build(f Fields) (Transmission, error) {
	if len(f.AudioFiles) < MinAudioFiles {
		return Transmission{}, &ValidationError{Field: "audio files", Err: ErrTooFewFiles}
	}

	cooldown, err := strconv.Atoi(strings.TrimSpace(f.Cooldown))
	if err != nil || cooldown < 0 {
		return Transmission{}, &ValidationError{Field: "cooldown", Err: ErrInvalidCooldown}
	}

	every := 0
	if f.Announce {
		every, err = strconv.Atoi(strings.TrimSpace(f.AnnounceEvery))
		if err != nil || every < 1 {
			return Transmission{}, &ValidationError{Field: "announce every", Err: ErrInvalidAnnounceEvery}
		}
	}

	if f.UseExternalAnnouncement && f.AnnouncementAudio == "" {
		return Transmission{}, &ValidationError{Field: "announcement audio", Err: ErrMissingAnnouncementAudio}
	}

	t := Transmission{
		AudioFiles:              append([]media.Resource(nil), f.AudioFiles...),
		UseExternalAnnouncement: f.UseExternalAnnouncement,
		AnnounceEvery:           every,
		CooldownSeconds:         cooldown,
		Shuffle:                 f.Shuffle,
		PrependTone:             f.PrependTone,
	}
	if f.UseExternalAnnouncement {
		t.AnnouncementAudio = f.AnnouncementAudio
	}
	if f.Announce && !f.UseExternalAnnouncement {
		t.AnnouncementPhrase = f.Phrase
	}
	return t, nil
}

// Validate re-checks the invariants of a transmission that was not produced by
// Build, e.g. one decoded from a preset.
func (t Transmission) Validate() error {
	switch {
	case len(t.AudioFiles) < MinAudioFiles:
		return &ValidationError{Field: "audio files", Err: ErrTooFewFiles}
	case t.CooldownSeconds < 0:
		return &ValidationError{Field: "cooldown", Err: ErrInvalidCooldown}
	case t.AnnounceEvery < 0:
		return &ValidationError{Field: "announce every", Err: ErrInvalidAnnounceEvery}
	case t.UseExternalAnnouncement && t.AnnouncementAudio == "":
		return &ValidationError{Field: "announcement audio", Err: ErrMissingAnnouncementAudio}
	}
	return nil
}

// AnnouncementsEnabled reports whether the rotation includes announcements.
func (t Transmission) AnnouncementsEnabled() bool {
	return t.AnnounceEvery > 0
}

// Fields converts the transmission back into editable form.
func (t Transmission) Fields() Fields {
	f := Fields{
		AudioFiles:              append([]media.Resource(nil), t.AudioFiles...),
		Cooldown:                strconv.Itoa(t.CooldownSeconds),
		Shuffle:                 t.Shuffle,
		Announce:                t.AnnouncementsEnabled(),
		UseExternalAnnouncement: t.UseExternalAnnouncement,
		AnnouncementAudio:       t.AnnouncementAudio,
		Phrase:                  t.AnnouncementPhrase,
		PrependTone:             t.PrependTone,
	}
	if t.AnnouncementsEnabled() {
		f.AnnounceEvery = strconv.Itoa(t.AnnounceEvery)
	}
	return f
}

// Package preset persists named transmissions.
package preset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/d1nch8g/viors/config"
	"github.com/d1nch8g/viors/media"
)

const (
	DemoRobot36 = "Demo Robot36"
	DemoPD120   = "Demo PD120"
)

// ReservedNames are the built-in presets. They cannot be overwritten or deleted.
var ReservedNames = []string{DemoRobot36, DemoPD120}

var (
	ErrReservedName = errors.New("preset name is reserved")
	ErrInvalidName  = errors.New("preset name is empty")
	ErrNameClash    = errors.New("a preset with a similar name already exists")
	ErrNotFound     = errors.New("preset not found")
)

// Preset is a named transmission snapshot.
type Preset struct {
	Name         string
	Transmission config.Transmission
	Builtin      bool
}

// Store defines persistence operations for presets.
type Store interface {
	List(ctx context.Context) ([]Preset, error)
	Get(ctx context.Context, name string) (Preset, error)
	Save(ctx context.Context, name string, t config.Transmission) error
	Delete(ctx context.Context, name string) error
}

// IsReserved reports whether name belongs to a built-in preset.
func IsReserved(name string) bool {
	for _, r := range ReservedNames {
		if name == r {
			return true
		}
	}
	return false
}

// Defaults returns the built-in demo presets with audio under assetsDir.
func Defaults(assetsDir string) []Preset {
	robot := demoTransmission(assetsDir, "demo_robot36_%02d.wav")
	pd := demoTransmission(assetsDir, "demo_pd120_%02d.wav")
	return []Preset{
		{Name: DemoRobot36, Transmission: robot, Builtin: true},
		{Name: DemoPD120, Transmission: pd, Builtin: true},
	}
}

func demoTransmission(dir, pattern string) config.Transmission {
	files := make([]media.Resource, config.MinAudioFiles)
	for i := range files {
		files[i] = media.Resource(filepath.Join(dir, fmt.Sprintf(pattern, i+1)))
	}
	return config.Transmission{
		AudioFiles:         files,
		CooldownSeconds:    120,
		AnnouncementPhrase: "This is a Virtual I O R S Demo.",
		PrependTone:        true,
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Settings holds process-wide settings read from the environment.
type Settings struct {
	Yandex YandexSettings
	Audio  AudioSettings

	PresetDB  string
	AssetsDir string
	// ToneFile overrides the generated VOX tone when set
	ToneFile     string
	SpeechSettle time.Duration
}

type YandexSettings struct {
	ApiKey   string
	FolderID string
	Voice    string
	Speed    float64
}

type AudioSettings struct {
	SampleRate      float64
	FramesPerBuffer int
	OutputChannels  int
}

// LoadSettings reads .env (if present) and the process environment.
func LoadSettings() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds settings from environment variables, applying defaults.
func FromEnv() (*Settings, error) {
	s := &Settings{
		Yandex: YandexSettings{
			ApiKey:   os.Getenv("YANDEX_API_KEY"),
			FolderID: os.Getenv("YANDEX_FOLDER_ID"),
			Voice:    getenv("TTS_VOICE", "john"),
		},
		PresetDB:  getenv("PRESET_DB", "viors.db"),
		AssetsDir: getenv("ASSETS_DIR", "assets"),
		ToneFile:  os.Getenv("TONE_FILE"),
	}

	var err error
	if s.Yandex.Speed, err = floatEnv("TTS_SPEED", 1.0); err != nil {
		return nil, err
	}
	if s.Audio.SampleRate, err = floatEnv("SAMPLE_RATE", 44100); err != nil {
		return nil, err
	}
	if s.Audio.FramesPerBuffer, err = intEnv("FRAMES_PER_BUFFER", 1024); err != nil {
		return nil, err
	}
	if s.Audio.OutputChannels, err = intEnv("OUTPUT_CHANNELS", 1); err != nil {
		return nil, err
	}
	settleMs, err := intEnv("SPEECH_SETTLE_MS", 500)
	if err != nil {
		return nil, err
	}
	s.SpeechSettle = time.Duration(settleMs) * time.Millisecond

	return s, nil
}

// SpeechEnabled reports whether credentials for the speech engine are present.
func (s *Settings) SpeechEnabled() bool {
	return s.Yandex.ApiKey != "" && s.Yandex.FolderID != ""
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return f, nil
}

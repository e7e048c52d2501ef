package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/d1nch8g/viors/announce"
	"github.com/d1nch8g/viors/config"
	"github.com/d1nch8g/viors/engine"
	"github.com/d1nch8g/viors/media"
	"github.com/d1nch8g/viors/preset"
	"github.com/d1nch8g/viors/sound"
	"github.com/d1nch8g/viors/tts"
)

func main() {
	presetFlag := flag.String("preset", "", "Transmit a saved preset.")
	filesFlag := flag.String("files", "", "Directory or glob of SSTV audio files (WAV or MP3).")
	cooldownFlag := flag.String("cooldown", "120", "Silent gap between phases, in seconds.")
	shuffleFlag := flag.Bool("shuffle", false, "Shuffle the rotation once at start.")
	announceEveryFlag := flag.String("announce-every", "", "Announce after every N images. Empty disables announcements.")
	phraseFlag := flag.String("phrase", "", "Phrase to synthesize for announcements.")
	announcementAudioFlag := flag.String("announcement-audio", "", "Play this recording instead of synthesized speech.")
	toneFlag := flag.Bool("tone", false, "Play a 1-second 1900 Hz VOX tone before each image.")
	savePresetFlag := flag.String("save-preset", "", "Save the transmission built from flags under this name.")
	listPresetsFlag := flag.Bool("list-presets", false, "List saved presets and exit.")
	deletePresetFlag := flag.String("delete-preset", "", "Delete a saved preset and exit.")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := preset.OpenSQLite(settings.PresetDB)
	if err != nil {
		log.Fatalf("Failed to open presets: %v", err)
	}
	defer store.Close()

	if err := store.SeedDefaults(ctx, preset.Defaults(settings.AssetsDir)); err != nil {
		log.Fatalf("Failed to seed default presets: %v", err)
	}

	switch {
	case *listPresetsFlag:
		if err := listPresets(ctx, store); err != nil {
			log.Fatalf("Failed to list presets: %v", err)
		}
		return
	case *deletePresetFlag != "":
		if err := store.Delete(ctx, *deletePresetFlag); err != nil {
			log.Fatalf("Failed to delete preset: %v", err)
		}
		fmt.Printf("Deleted preset %q\n", *deletePresetFlag)
		return
	}

	var transmission config.Transmission
	if *presetFlag != "" {
		p, err := store.Get(ctx, *presetFlag)
		if err != nil {
			log.Fatalf("Failed to load preset: %v", err)
		}
		transmission = p.Transmission
	} else {
		files, err := resolveFiles(*filesFlag)
		if err != nil {
			log.Fatalf("Failed to find audio files: %v", err)
		}
		transmission, err = config.Build(config.Fields{
			AudioFiles:              files,
			Cooldown:                *cooldownFlag,
			Shuffle:                 *shuffleFlag,
			Announce:                *announceEveryFlag != "",
			AnnounceEvery:           *announceEveryFlag,
			UseExternalAnnouncement: *announcementAudioFlag != "",
			AnnouncementAudio:       media.Resource(*announcementAudioFlag),
			Phrase:                  *phraseFlag,
			PrependTone:             *toneFlag,
		})
		if err != nil {
			var verr *config.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", verr)
				os.Exit(2)
			}
			log.Fatalf("Failed to build transmission: %v", err)
		}
		if *savePresetFlag != "" {
			if err := store.Save(ctx, *savePresetFlag, transmission); err != nil {
				log.Fatalf("Failed to save preset: %v", err)
			}
			fmt.Printf("Saved preset %q\n", *savePresetFlag)
		}
	}

	if err := transmit(ctx, settings, transmission); err != nil {
		log.Fatalf("Transmission failed: %v", err)
	}
}

func transmit(ctx context.Context, settings *config.Settings, transmission config.Transmission) error {
	sink := sound.NewPortaudioSink(sound.PlayerConfig{
		SampleRate:      settings.Audio.SampleRate,
		FramesPerBuffer: settings.Audio.FramesPerBuffer,
		OutputChannels:  settings.Audio.OutputChannels,
	})
	if err := sink.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer sink.Terminate()

	if err := sink.Open(); err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer sink.Close()

	controller := sound.NewController(sink)

	var speaker announce.Speaker
	if settings.SpeechEnabled() {
		client, err := tts.NewYandexTTSClient(tts.YandexConfig{
			ApiKey:   settings.Yandex.ApiKey,
			FolderID: settings.Yandex.FolderID,
		})
		if err != nil {
			log.Printf("Speech engine unavailable: %v", err)
		} else {
			options := tts.GetDefaultSynthesisOptions()
			options.Voice = settings.Yandex.Voice
			options.Speed = settings.Yandex.Speed

			s := tts.NewSpeaker(client, controller, options)
			defer s.Close()
			speaker = s
		}
	} else if transmission.AnnouncementsEnabled() && !transmission.UseExternalAnnouncement {
		log.Println("YANDEX_API_KEY and YANDEX_FOLDER_ID are not set, announcements will be silent")
	}

	tone := media.Tone1900
	if settings.ToneFile != "" {
		tone = media.Resource(settings.ToneFile)
	}

	scheduler := engine.NewScheduler(
		controller,
		announce.NewAnnouncer(controller, speaker, settings.SpeechSettle),
		engine.Options{Tone: tone},
	)

	fmt.Println("Transmitting. Press Ctrl-C to stop.")

	run, err := scheduler.Start(ctx, transmission, func(s engine.State) {
		if s.Idle() {
			fmt.Println("Idle")
			return
		}
		fmt.Printf("%-12s %-28s %s\n", s.Phase.Kind, s.Phase.Label, s.Phase.Total)
	})
	if err != nil {
		return err
	}

	err = run.Wait()
	scheduler.Stop()
	return err
}

func listPresets(ctx context.Context, store preset.Store) error {
	presets, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range presets {
		kind := "user"
		if p.Builtin {
			kind = "built-in"
		}
		t := p.Transmission
		fmt.Printf("%-24s %-8s files=%d cooldown=%ds announce-every=%d shuffle=%t tone=%t\n",
			p.Name, kind, len(t.AudioFiles), t.CooldownSeconds, t.AnnounceEvery, t.Shuffle, t.PrependTone)
	}
	return nil
}

// resolveFiles expands a directory or glob into a sorted list of audio files.
func resolveFiles(pattern string) ([]media.Resource, error) {
	if pattern == "" {
		return nil, nil
	}

	var paths []string
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		entries, err := os.ReadDir(pattern)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && isAudio(e.Name()) {
				paths = append(paths, filepath.Join(pattern, e.Name()))
			}
		}
	} else {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if isAudio(m) {
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)
	return media.Resources(paths), nil
}

func isAudio(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav", ".wave", ".mp3":
		return true
	}
	return false
}

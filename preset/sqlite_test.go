package preset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/d1nch8g/viors/config"
	"github.com/d1nch8g/viors/media"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "presets.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testTransmission(cooldown int) config.Transmission {
	files := make([]media.Resource, 12)
	for i := range files {
		files[i] = media.Resource(fmt.Sprintf("/sstv/img_%02d.wav", i))
	}
	return config.Transmission{AudioFiles: files, CooldownSeconds: cooldown, AnnounceEvery: 3, AnnouncementPhrase: "de N0CALL"}
}

// TestSaveGetRoundTrip checks a saved preset comes back unchanged.
func TestSaveGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := testTransmission(90)

	if err := s.Save(ctx, "Field day", want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Get(ctx, "Field day")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Transmission.CooldownSeconds != 90 || got.Transmission.AnnounceEvery != 3 ||
		got.Transmission.AnnouncementPhrase != "de N0CALL" || len(got.Transmission.AudioFiles) != 12 {
		t.Fatalf("Get() = %+v", got.Transmission)
	}
	if got.Builtin {
		t.Fatal("user preset marked builtin")
	}
}

// TestSaveOverwritesAndMovesToEnd mirrors the overwrite semantics of saving
// under an existing name.
func TestSaveOverwritesAndMovesToEnd(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, name, testTransmission(10)); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}
	if err := s.Save(ctx, "a", testTransmission(20)); err != nil {
		t.Fatalf("overwrite error = %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var names []string
	for _, p := range list {
		names = append(names, p.Name)
	}
	if fmt.Sprint(names) != "[b c a]" {
		t.Fatalf("order = %v, want [b c a]", names)
	}
	if list[2].Transmission.CooldownSeconds != 20 {
		t.Fatalf("overwrite not applied: %+v", list[2].Transmission)
	}
}

func TestSaveRejects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, "Night", testTransmission(10)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tests := []struct {
		name string
		tr   config.Transmission
		want error
	}{
		{"  ", testTransmission(10), ErrInvalidName},
		{DemoRobot36, testTransmission(10), ErrReservedName},
		{"NIGHT", testTransmission(10), ErrNameClash},
		{"Short", config.Transmission{AudioFiles: []media.Resource{"/a.wav"}}, config.ErrTooFewFiles},
	}
	for _, tt := range tests {
		if err := s.Save(ctx, tt.name, tt.tr); !errors.Is(err, tt.want) {
			t.Errorf("Save(%q) error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, "temp", testTransmission(10)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := s.Delete(ctx, "temp"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "temp"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v, want %v", err, ErrNotFound)
	}
	if err := s.Delete(ctx, "temp"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want %v", err, ErrNotFound)
	}
	if err := s.Delete(ctx, DemoPD120); !errors.Is(err, ErrReservedName) {
		t.Fatalf("Delete(builtin) error = %v, want %v", err, ErrReservedName)
	}
}

// TestSeedDefaultsOnce checks built-ins are installed exactly once.
func TestSeedDefaultsOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	defaults := Defaults("/opt/viors/assets")

	if err := s.SeedDefaults(ctx, defaults); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != DemoRobot36 || list[1].Name != DemoPD120 {
		t.Fatalf("seeded presets = %+v", list)
	}
	robot := list[0].Transmission
	if !list[0].Builtin || !robot.PrependTone || robot.CooldownSeconds != 120 || robot.AnnouncementsEnabled() {
		t.Fatalf("robot preset = %+v", list[0])
	}
	if got := robot.AudioFiles[0]; got != media.Resource(filepath.Join("/opt/viors/assets", "demo_robot36_01.wav")) {
		t.Fatalf("first robot file = %q", got)
	}

	// user changes survive a second seeding attempt
	if _, err := s.db.Exec(`delete from presets where name = ?`, DemoPD120); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.SeedDefaults(ctx, defaults); err != nil {
		t.Fatalf("second SeedDefaults() error = %v", err)
	}
	list, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("defaults re-seeded: %d presets", len(list))
	}
}

// TestListSkipsCorruptRows checks undecodable presets are ignored.
func TestListSkipsCorruptRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Save(ctx, "good", testTransmission(10)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := s.db.Exec(`insert into presets (name, config, builtin, position) values ('bad', '{oops', 0, 99)`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Name != "good" {
		t.Fatalf("List() = %+v", list)
	}
}

func TestIsReserved(t *testing.T) {
	if !IsReserved(DemoRobot36) || IsReserved("demo robot36") || IsReserved("mine") {
		t.Fatal("unexpected reserved-name result")
	}
}

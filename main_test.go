package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.wav", "a.mp3", "notes.txt", "c.WAV"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	got, err := resolveFiles(dir)
	if err != nil {
		t.Fatalf("resolveFiles(dir) error = %v", err)
	}
	if len(got) != 3 || got[0].Name() != "a.mp3" || got[1].Name() != "b.wav" || got[2].Name() != "c.WAV" {
		t.Fatalf("resolveFiles(dir) = %v", got)
	}

	got, err = resolveFiles(filepath.Join(dir, "*.wav"))
	if err != nil {
		t.Fatalf("resolveFiles(glob) error = %v", err)
	}
	if len(got) != 1 || got[0].Name() != "b.wav" {
		t.Fatalf("resolveFiles(glob) = %v", got)
	}

	if got, err := resolveFiles(""); err != nil || got != nil {
		t.Fatalf("resolveFiles(\"\") = %v, %v", got, err)
	}
}

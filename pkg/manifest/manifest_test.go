package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"imgcrawler/pkg/logger"
)

func TestManifestManager(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(dir, logger.NewNopLogger())

	t.Run("LoadMissing", func(t *testing.T) {
		m, err := mgr.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if m != nil {
			t.Errorf("expected nil manifest, got %+v", m)
		}
		if mgr.Exists() {
			t.Error("Exists() = true before save")
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		m := &Manifest{
			StartURL:   "https://example.com/gallery",
			Pages:      []string{"https://example.com/gallery"},
			Discovered: 2,
			Saved:      []Entry{{URL: "https://example.com/a.png", File: "a.png"}},
			Failed:     []Failure{{URL: "https://example.com/b.jpg", Error: "HTTP 404"}},
			StartedAt:  started,
		}
		if err := mgr.Save(m); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if m.Version != Version {
			t.Errorf("Version = %d, want %d", m.Version, Version)
		}
		if m.FinishedAt.IsZero() {
			t.Error("FinishedAt was not set")
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if loaded == nil {
			t.Fatal("expected manifest, got nil")
		}
		if loaded.StartURL != m.StartURL || loaded.Discovered != 2 {
			t.Errorf("loaded = %+v", loaded)
		}
		if !loaded.StartedAt.Equal(started) {
			t.Errorf("StartedAt = %v, want %v", loaded.StartedAt, started)
		}
		if got := loaded.Files()["https://example.com/a.png"]; got != "a.png" {
			t.Errorf("Files()[a.png] = %q", got)
		}
		if len(loaded.Failed) != 1 {
			t.Errorf("Failed = %+v", loaded.Failed)
		}
	})

	t.Run("NoTemporaryFilesLeft", func(t *testing.T) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Errorf("temporary file left behind: %s", e.Name())
			}
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := mgr.Save(&Manifest{StartURL: "https://example.com/other"}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		loaded, err := mgr.Load()
		if err != nil {
			t.Fatal(err)
		}
		if loaded.StartURL != "https://example.com/other" {
			t.Errorf("StartURL = %q", loaded.StartURL)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := mgr.Delete(); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if mgr.Exists() {
			t.Error("manifest still exists after Delete")
		}
		if err := mgr.Delete(); err != nil {
			t.Errorf("second Delete() error = %v", err)
		}
	})
}

func TestManifestCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewManager(dir, nil).Load(); err == nil {
		t.Error("expected decode error for corrupt manifest")
	}
}

func TestManifestSaveMissingDirectory(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing"), logger.NewNopLogger())
	if err := mgr.Save(&Manifest{}); err == nil {
		t.Error("expected error when the directory does not exist")
	}
}

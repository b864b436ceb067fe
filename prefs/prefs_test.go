package prefs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := s.Get(); got != Default() {
		t.Errorf("Get() = %+v, want defaults", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("defaults not written: %v", err)
	}
}

func TestUpdatePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	got, err := s.Update(func(p *Prefs) error {
		p.LocationKey = " DC "
		p.Verse = "  Be still.  "
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.LocationKey != "dc" || got.Verse != "Be still." {
		t.Errorf("Update returned %+v", got)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.Get() != got {
		t.Errorf("reloaded %+v, want %+v", reopened.Get(), got)
	}
	if reopened.Get().Location().Label != "Washington, DC" {
		t.Errorf("Location() = %+v", reopened.Get().Location())
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "location_key: dc") {
		t.Errorf("unexpected YAML:\n%s", data)
	}
}

func TestUpdateErrorKeepsValue(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "prefs.yaml"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	_, err = s.Update(func(p *Prefs) error {
		p.Verse = "discarded"
		return errors.New("rejected")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if s.Get().Verse != DefaultVerse {
		t.Errorf("failed update leaked: %q", s.Get().Verse)
	}
}

func TestNormalize(t *testing.T) {
	p := Prefs{LocationKey: "atlantis", Verse: "   "}
	p.Normalize()
	if p != Default() {
		t.Errorf("Normalize() = %+v, want defaults", p)
	}
}

func TestOpenRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	os.WriteFile(path, []byte("location_key: [unclosed"), 0o600)
	if _, err := Open(path); err == nil {
		t.Error("expected parse error")
	}
}

// Package prefs stores the dashboard's household-independent preferences
// (weather location, verse text) in a YAML file.
package prefs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
	"gopkg.in/yaml.v3"
)

// Location is a selectable place for the weather panel
type Location struct {
	Key   string  `yaml:"key" json:"key"`
	Label string  `yaml:"label" json:"label"`
	Lat   float64 `yaml:"lat" json:"lat"`
	Lon   float64 `yaml:"lon" json:"lon"`
}

// Locations is the fixed list a location key must come from
var Locations = []Location{
	{Key: "winchester", Label: "Winchester, VA", Lat: 39.1856597, Lon: -78.1633341},
	{Key: "harrisonburg", Label: "Harrisonburg, VA", Lat: 38.449569, Lon: -78.868915},
	{Key: "frederick", Label: "Frederick, MD", Lat: 39.414268, Lon: -77.410540},
	{Key: "dc", Label: "Washington, DC", Lat: 38.9072, Lon: -77.0369},
}

// Defaults
const (
	DefaultLocation = "winchester"
	DefaultVerse    = "We'll wire a verse API later, or you can type your own."
)

// Prefs is the persisted preference set
type Prefs struct {
	LocationKey string `yaml:"location_key" json:"location_key"`
	Verse       string `yaml:"verse" json:"verse"`
}

// Default returns the first-run preferences
func Default() Prefs {
	return Prefs{LocationKey: DefaultLocation, Verse: DefaultVerse}
}

// Normalize fills blanks with defaults and falls back to the default
// location for unknown keys
func (p *Prefs) Normalize() {
	p.LocationKey = strings.ToLower(strings.TrimSpace(p.LocationKey))
	if _, ok := LookupLocation(p.LocationKey); !ok {
		p.LocationKey = DefaultLocation
	}
	p.Verse = strings.TrimSpace(p.Verse)
	if p.Verse == "" {
		p.Verse = DefaultVerse
	}
}

// Location resolves the selected location
func (p Prefs) Location() Location {
	loc, ok := LookupLocation(p.LocationKey)
	if !ok {
		loc, _ = LookupLocation(DefaultLocation)
	}
	return loc
}

// LookupLocation finds a location by key
func LookupLocation(key string) (Location, bool) {
	for _, l := range Locations {
		if l.Key == key {
			return l, true
		}
	}
	return Location{}, false
}

// Store holds the preferences in memory and writes every change through to disk
type Store struct {
	path string
	mu   sync.RWMutex
	cur  Prefs
}

// Open loads preferences from path, creating the file with defaults on first run
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, serr.New("preferences path is empty")
	}
	s := &Store{path: path, cur: Default()}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := save(path, s.cur); err != nil {
				return nil, err
			}
			logger.Info("Created default preferences", "path", path)
			return s, nil
		}
		return nil, serr.Wrap(err, "failed to read preferences")
	}

	var p Prefs
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, serr.Wrap(err, "failed to parse preferences YAML")
	}
	p.Normalize()
	s.cur = p
	return s, nil
}

// Get returns the current preferences
func (s *Store) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Update applies fn to a copy, normalizes, saves and then publishes the result.
// On a save failure the in-memory value is unchanged.
func (s *Store) Update(fn func(p *Prefs) error) (Prefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur
	if err := fn(&next); err != nil {
		return s.cur, err
	}
	next.Normalize()
	if err := save(s.path, next); err != nil {
		return s.cur, err
	}
	s.cur = next
	return next, nil
}

// save writes atomically: temp file in the same directory, then rename
func save(path string, p Prefs) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return serr.Wrap(err, "failed to create preferences directory")
	}

	data, err := yaml.Marshal(&p)
	if err != nil {
		return serr.Wrap(err, "failed to marshal preferences")
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.tmp")
	if err != nil {
		return serr.Wrap(err, "failed to create temp preferences file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return serr.Wrap(err, "failed to write preferences")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return serr.Wrap(err, "failed to sync preferences")
	}
	if err := tmp.Close(); err != nil {
		return serr.Wrap(err, "failed to close preferences file")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return serr.Wrap(err, "failed to set preferences permissions")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return serr.Wrap(err, "failed to replace preferences file")
	}
	return nil
}

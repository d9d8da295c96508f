// Package settings persists the appliance's runtime settings as JSON. Other
// components poll the store through Get rather than caching values, so a
// change from the menu or the web UI takes effect on the next tick.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type Display struct {
	Rotation     int  `json:"rotation"`
	Brightness   int  `json:"brightness"`
	SleepSeconds int  `json:"sleep_seconds"`
	Screensaver  bool `json:"screensaver_enabled"`
}

type LED struct {
	Brightness int `json:"brightness"`
}

type UI struct {
	AnimSpeed int `json:"anim_speed"`
}

type System struct {
	ProgramSelect   string `json:"program_select"`
	AutoShutdownMin int    `json:"auto_shutdown_min"`
	RestartRequired bool   `json:"restart_required"`
}

type Settings struct {
	Display Display `json:"display"`
	LED     LED     `json:"led"`
	UI      UI      `json:"ui"`
	System  System  `json:"system"`
}

func Defaults() Settings {
	return Settings{
		Display: Display{Rotation: 180, Brightness: 100, SleepSeconds: 120},
		LED:     LED{Brightness: 30},
		UI:      UI{AnimSpeed: 5},
		System:  System{ProgramSelect: "Default"},
	}
}

// Store owns the settings file. Saves are debounced to spare the SD card;
// Flush forces a write at shutdown.
type Store struct {
	mu       sync.Mutex
	path     string
	cur      Settings
	debounce time.Duration
	timer    *time.Timer
}

// Open loads path, merging the file over the defaults so missing keys keep
// their default values. A missing or corrupt file is replaced with defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: path, cur: Defaults(), debounce: 600 * time.Millisecond}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(data, &s.cur); jerr != nil {
			log.Warn().Err(jerr).Str("path", path).Msg("settings file corrupt; using defaults")
			s.cur = Defaults()
		}
	case os.IsNotExist(err):
		if werr := saveAtomic(path, s.cur); werr != nil {
			return nil, werr
		}
	default:
		return nil, err
	}
	return s, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Update applies fn to the settings under the lock and schedules a debounced
// save.
func (s *Store) Update(fn func(*Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cur)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(); err != nil {
			log.Warn().Err(err).Msg("settings save failed")
		}
	})
}

// Flush writes the settings to disk immediately.
func (s *Store) Flush() error {
	s.mu.Lock()
	cur := s.cur
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return saveAtomic(s.path, cur)
}

// saveAtomic writes via a temp file and rename so a crash mid-write never
// leaves a truncated settings file.
func saveAtomic(path string, v Settings) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

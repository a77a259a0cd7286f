// Package prefs persists device-scoped presentation preferences: the color
// theme and the animation flag. It has no network dependency and no
// interaction with session state.
package prefs

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// fileData is the on-disk shape. The animation flag keeps the "0"/"1"
// encoding of the stored value so an unknown value falls through to the
// default, same as a missing one.
type fileData struct {
	Theme      string `toml:"theme,omitempty"`
	Animations string `toml:"animations,omitempty"`
}

// Store reads and writes the preference file. Reads on a missing or corrupt
// file fall back to defaults and are never fatal; writes persist immediately.
type Store struct {
	mu       sync.Mutex
	path     string
	darkHint func() bool
}

// New creates a store over the file at path. darkHint supplies the platform
// dark-mode hint consulted when no theme has been stored; nil falls back to
// the environment-based hint.
func New(path string, darkHint func() bool) *Store {
	if darkHint == nil {
		darkHint = EnvDarkHint
	}
	return &Store{path: path, darkHint: darkHint}
}

// DefaultPath returns the preference file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snakesss", "prefs.toml"), nil
}

// EnvDarkHint guesses the terminal background from the COLORFGBG convention
// ("<fg>;<bg>", dark backgrounds 0-6 and 8). Absent or unparsable values
// count as "no hint", i.e. not dark.
func EnvDarkHint() bool {
	value := os.Getenv("COLORFGBG")
	if value == "" {
		return false
	}

	parts := strings.Split(value, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}

	return bg <= 6 || bg == 8
}

// Theme returns the stored theme. With no valid stored value it consults the
// dark hint, defaulting to light.
func (s *Store) Theme() Theme {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch Theme(s.load().Theme) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	}

	if s.darkHint() {
		return ThemeDark
	}
	return ThemeLight
}

// SetTheme persists the theme before returning.
func (s *Store) SetTheme(theme Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	data.Theme = string(theme)
	return s.save(data)
}

// Animations returns the stored animation flag, enabled by default.
func (s *Store) Animations() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load().Animations != "0"
}

// SetAnimations persists the animation flag before returning.
func (s *Store) SetAnimations(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.load()
	if enabled {
		data.Animations = "1"
	} else {
		data.Animations = "0"
	}
	return s.save(data)
}

// load reads the preference file. Any read or parse failure is treated as an
// absent file.
func (s *Store) load() fileData {
	var data fileData
	if _, err := toml.DecodeFile(s.path, &data); err != nil {
		if !os.IsNotExist(err) {
			log.Debugf("[prefs] unreadable preference file %s, using defaults: %v", s.path, err)
		}
		return fileData{}
	}
	return data
}

func (s *Store) save(data fileData) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

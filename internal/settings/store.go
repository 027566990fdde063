package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName      = "segclock"
	settingsFile = "settings.yaml"
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/segclock or $HOME/.config/segclock
//   - macOS: $HOME/.config/segclock
//   - Windows: %LOCALAPPDATA%\segclock
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// DefaultPath returns the full path to the settings file.
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFile), nil
}

// Store is the settings file plus its in-memory copy. Safe for concurrent use.
type Store struct {
	path string

	mu      sync.Mutex
	current *Settings
}

// Open loads the settings at path, or at DefaultPath when path is empty.
// A missing file yields defaults; nothing is written until the first save.
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get settings path: %w", err)
		}
		path = p
	}

	s := &Store{path: path}
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the settings file location
func (s *Store) Path() string {
	return s.path
}

// Load re-reads the file, discarding in-memory changes.
func (s *Store) Load() (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	s.current = loaded
	return loaded.Clone(), nil
}

func readFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	// Absent keys keep their defaults.
	loaded := Defaults()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	if loaded.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported settings version: %d (expected %d)", loaded.Version, CurrentVersion)
	}
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	}
	return loaded, nil
}

// Settings returns a copy of the current settings
func (s *Store) Settings() *Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Save validates and persists next, then makes it current.
func (s *Store) Save(next *Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(next.Clone())
}

// Update applies fn to a copy of the current settings and saves the result.
// Nothing is written if fn or validation fails.
func (s *Store) Update(fn func(*Settings) error) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.saveLocked(next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// Get returns a setting by key.
func (s *Store) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.value(key)
}

// Set validates and persists one setting by key.
func (s *Store) Set(key, value string) error {
	_, err := s.Update(func(next *Settings) error {
		return next.setValue(key, value)
	})
	return err
}

// SetMany applies several key/value pairs in a single save. Unknown keys are
// an error and nothing is written.
func (s *Store) SetMany(values map[string]string) (*Settings, error) {
	return s.Update(func(next *Settings) error {
		for key, value := range values {
			if err := next.setValue(key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) saveLocked(next *Settings) error {
	next.Version = CurrentVersion
	if err := next.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	header := []byte("# segclock settings\n# Written by segclockd. Edit while the daemon is stopped.\n\n")
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary settings file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save settings file: %w", err)
	}

	s.current = next
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/muurk/segclock/internal/settings"
)

const registryFile = "clocks.yaml"

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// GetRegistryPath returns the full path to the registry file.
func GetRegistryPath() (string, error) {
	configDir, err := settings.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, registryFile), nil
}

// Load reads the registry at path, or at GetRegistryPath when path is
// empty. A missing file yields a new default registry.
func Load(path string) (*Registry, error) {
	if path == "" {
		p, err := GetRegistryPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get registry path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		registry := NewRegistry()
		registry.path = path
		return registry, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse registry file: %w", err)
	}
	if registry.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported registry version: %d (expected %d)", registry.Version, CurrentVersion)
	}

	// Ensure maps are initialized
	defaults := NewRegistry()
	if registry.Clocks == nil {
		registry.Clocks = defaults.Clocks
	}
	if registry.Preferences == nil {
		registry.Preferences = defaults.Preferences
	}
	registry.path = path
	return &registry, nil
}

// Save writes the registry back to the file it was loaded from.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if r.path == "" {
		p, err := GetRegistryPath()
		if err != nil {
			return fmt.Errorf("failed to get registry path: %w", err)
		}
		r.path = p
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	header := []byte(`# segclock-cfg clock registry
# Clocks found by 'segclock-cfg scan' and the default clock.
#
# Location: ` + r.path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := r.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary registry file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save registry file: %w", err)
	}
	return nil
}

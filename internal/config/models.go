package config

import (
	"strings"
	"time"
)

// CurrentVersion is the registry file format version.
const CurrentVersion = 1

// Registry represents the entire clock registry file.
type Registry struct {
	Version     int               `yaml:"version"`
	Clocks      map[string]*Clock `yaml:"clocks,omitempty"` // Keyed by mDNS instance name
	Preferences *Preferences      `yaml:"preferences,omitempty"`

	path string
}

// Clock represents what is remembered about one clock.
type Clock struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastAddr string    `yaml:"last_addr,omitempty"` // Last known host:port
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last discovery/connection time
	Version  string    `yaml:"version,omitempty"`   // Daemon version when last seen
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`           // Scan mDNS when no clock is given
	DiscoverTimeout int    `yaml:"discover_timeout"`        // mDNS discovery timeout in seconds
	DefaultClock    string `yaml:"default_clock,omitempty"` // Clock used when none is named
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: CurrentVersion,
		Clocks:  make(map[string]*Clock),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 5,
		},
	}
}

// Path returns the file the registry was loaded from.
func (r *Registry) Path() string {
	return r.path
}

// GetClock looks a clock up by name or nickname, ignoring case.
// Returns nil if the clock is unknown.
func (r *Registry) GetClock(name string) *Clock {
	for key, clock := range r.Clocks {
		if strings.EqualFold(key, name) || (clock.Nickname != "" && strings.EqualFold(clock.Nickname, name)) {
			return clock
		}
	}
	return nil
}

// EnsureClock ensures a clock entry exists in the registry and returns it.
func (r *Registry) EnsureClock(name string) *Clock {
	if r.Clocks == nil {
		r.Clocks = make(map[string]*Clock)
	}
	if clock, exists := r.Clocks[name]; exists {
		return clock
	}
	clock := &Clock{}
	r.Clocks[name] = clock
	return clock
}

// UpdateClockLastSeen records where a clock was just found.
func (r *Registry) UpdateClockLastSeen(name, addr, version string) {
	clock := r.EnsureClock(name)
	clock.LastSeen = time.Now()
	clock.LastAddr = addr
	if version != "" {
		clock.Version = version
	}
}

// SetClockNickname sets a user-friendly nickname for a clock.
func (r *Registry) SetClockNickname(name, nickname string) {
	r.EnsureClock(name).Nickname = nickname
}

// DefaultClock returns the preferred clock's entry, or nil when none is set
// or it is not in the registry.
func (r *Registry) DefaultClock() *Clock {
	if r.Preferences == nil || r.Preferences.DefaultClock == "" {
		return nil
	}
	return r.GetClock(r.Preferences.DefaultClock)
}

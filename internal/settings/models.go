package settings

import "strconv"

// CurrentVersion is the settings file format version.
const CurrentVersion = 1

// DefaultBrightness is the display level used until the user changes it.
const DefaultBrightness = 15

// Keys accepted by Store.Get and Store.Set.
const (
	KeySSID       = "netssid"
	KeyPassword   = "netpw"
	KeyTimezone   = "timezone"
	KeyBrightness = "brightness"
)

// Settings is the persisted appliance configuration.
type Settings struct {
	Version         int    `yaml:"version"`
	NetworkSSID     string `yaml:"network_ssid,omitempty"`
	NetworkPassword string `yaml:"network_password,omitempty"`
	Timezone        string `yaml:"timezone,omitempty"`
	Brightness      int    `yaml:"brightness"`
}

// Defaults returns the settings a fresh clock starts with.
func Defaults() *Settings {
	return &Settings{
		Version:    CurrentVersion,
		Brightness: DefaultBrightness,
	}
}

// Clone returns a copy of s
func (s *Settings) Clone() *Settings {
	c := *s
	return &c
}

// value returns the string form of a key.
func (s *Settings) value(key string) (string, error) {
	switch key {
	case KeySSID:
		return s.NetworkSSID, nil
	case KeyPassword:
		return s.NetworkPassword, nil
	case KeyTimezone:
		return s.Timezone, nil
	case KeyBrightness:
		return strconv.Itoa(s.Brightness), nil
	default:
		return "", &UnknownKeyError{Key: key}
	}
}

// setValue assigns a key from its string form. The result is not validated.
func (s *Settings) setValue(key, value string) error {
	switch key {
	case KeySSID:
		s.NetworkSSID = value
	case KeyPassword:
		s.NetworkPassword = value
	case KeyTimezone:
		s.Timezone = value
	case KeyBrightness:
		n, err := strconv.Atoi(value)
		if err != nil {
			return NewValidationError(KeyBrightness, "brightness must be a number, got "+strconv.Quote(value))
		}
		s.Brightness = n
	default:
		return &UnknownKeyError{Key: key}
	}
	return nil
}

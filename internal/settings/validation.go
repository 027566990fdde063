package settings

import (
	"errors"
	"fmt"
	"time"

	// Zone database for hosts without /usr/share/zoneinfo.
	_ "time/tzdata"
)

// Field limits.
const (
	MaxSSIDLength     = 32
	MaxPasswordLength = 64
	MinBrightness     = 0
	MaxBrightness     = 15
)

// ValidateSSID checks the Wi-Fi network name length. Empty means not configured.
func ValidateSSID(ssid string) error {
	if len(ssid) > MaxSSIDLength {
		return NewValidationError(KeySSID, fmt.Sprintf("too long (max %d bytes): %d bytes", MaxSSIDLength, len(ssid)))
	}
	return nil
}

// ValidatePassword checks the Wi-Fi password length.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordLength {
		return NewValidationError(KeyPassword, fmt.Sprintf("too long (max %d bytes): %d bytes", MaxPasswordLength, len(password)))
	}
	return nil
}

// ValidateTimezone checks that name is a loadable zone. Empty means UTC.
func ValidateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return NewValidationError(KeyTimezone, fmt.Sprintf("unknown zone %q", name))
	}
	return nil
}

// ValidateBrightness checks the display level.
func ValidateBrightness(level int) error {
	if level < MinBrightness || level > MaxBrightness {
		return NewValidationError(KeyBrightness, fmt.Sprintf("must be %d-%d, got %d", MinBrightness, MaxBrightness, level))
	}
	return nil
}

// Validate checks every field and joins the failures.
func (s *Settings) Validate() error {
	return errors.Join(
		ValidateSSID(s.NetworkSSID),
		ValidatePassword(s.NetworkPassword),
		ValidateTimezone(s.Timezone),
		ValidateBrightness(s.Brightness),
	)
}

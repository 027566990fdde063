package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/segclock/internal/logging"
)

// Painter draws on a 4-character display.
type Painter interface {
	// ShowTime shows hour and minute with the colon lit.
	ShowTime(hour, minute int) error
	// ShowNumber shows n right-aligned.
	ShowNumber(n int) error
	// ShowString shows the first four characters of s.
	ShowString(s string) error
}

// Dimmer is implemented by displays with adjustable brightness.
type Dimmer interface {
	// SetBrightness sets the level, 0 (dimmest) to 15 (brightest).
	SetBrightness(level int) error
}

// AddressSource reports the appliance's IPv4 address in dotted form.
type AddressSource interface {
	Address() string
}

// StaticAddress is an AddressSource that always returns the same address.
type StaticAddress string

// Address returns the address
func (a StaticAddress) Address() string {
	return string(a)
}

// Brightness limits.
const (
	MinBrightness = 0
	MaxBrightness = 15
)

// ClampBrightness limits level to MinBrightness..MaxBrightness.
func ClampBrightness(level int) int {
	if level < MinBrightness {
		return MinBrightness
	}
	if level > MaxBrightness {
		return MaxBrightness
	}
	return level
}

// Hour12 converts a 24-hour clock hour to the 12-hour form shown on the
// display: 0 becomes 12 and 13..23 become 1..11.
func Hour12(hour int) int {
	if hour > 12 {
		hour -= 12
	}
	if hour == 0 {
		hour = 12
	}
	return hour
}

// Octet returns octet n (0..3) of a dotted IPv4 address. Missing or
// non-numeric octets read as 0.
func Octet(addr string, n int) int {
	if n < 0 {
		return 0
	}
	parts := strings.Split(addr, ".")
	if n >= len(parts) {
		return 0
	}
	v, err := strconv.Atoi(parts[n])
	if err != nil {
		return 0
	}
	return v
}

// FormatTime renders hour and minute the way the display shows them.
func FormatTime(hour, minute int) string {
	return fmt.Sprintf("%2d:%02d", hour, minute)
}

// LogPainter paints by logging what the display would show.
type LogPainter struct {
	brightness int
}

// NewLogPainter creates a painter that only logs
func NewLogPainter() *LogPainter {
	return &LogPainter{brightness: MaxBrightness}
}

// ShowTime logs the time
func (p *LogPainter) ShowTime(hour, minute int) error {
	logging.LogDisplay("time", FormatTime(hour, minute))
	return nil
}

// ShowNumber logs the number
func (p *LogPainter) ShowNumber(n int) error {
	logging.LogDisplay("number", fmt.Sprintf("%4d", n))
	return nil
}

// ShowString logs the string
func (p *LogPainter) ShowString(s string) error {
	logging.LogDisplay("string", s)
	return nil
}

// SetBrightness records and logs the level
func (p *LogPainter) SetBrightness(level int) error {
	p.brightness = ClampBrightness(level)
	logging.LogDisplay("brightness", strconv.Itoa(p.brightness))
	return nil
}

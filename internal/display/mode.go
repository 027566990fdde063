package display

import "fmt"

// Mode is what the scheduler is currently doing with the display.
type Mode int

const (
	// ModeShowTimeNow paints the current time once and moves on to
	// ModeWaitForMinuteFlip.
	ModeShowTimeNow Mode = iota
	// ModeWaitForMinuteFlip sleeps until just before the minute changes and
	// repaints once the new minute has started.
	ModeWaitForMinuteFlip
	// ModeShowAddressOctet paints the address one octet per second, then
	// returns to the time.
	ModeShowAddressOctet
)

// String returns the log name of the mode
func (m Mode) String() string {
	switch m {
	case ModeShowTimeNow:
		return "show_time_now"
	case ModeWaitForMinuteFlip:
		return "wait_for_minute_flip"
	case ModeShowAddressOctet:
		return "show_address_octet"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Command is a request posted to the scheduler's queue.
type Command int

const (
	// CommandShowNow repaints the time immediately.
	CommandShowNow Command = iota
	// CommandShowAddress starts the octet-by-octet address display.
	CommandShowAddress
)

// String returns the log name of the command
func (c Command) String() string {
	switch c {
	case CommandShowNow:
		return "show_now"
	case CommandShowAddress:
		return "show_address"
	default:
		return fmt.Sprintf("command(%d)", int(c))
	}
}

// mode returns the mode a command switches the scheduler into.
func (c Command) mode() Mode {
	if c == CommandShowAddress {
		return ModeShowAddressOctet
	}
	return ModeShowTimeNow
}

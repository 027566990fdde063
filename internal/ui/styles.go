package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/segclock/internal/display"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - success, checkmarks
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, X marks
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Shared styles
var (
	// HeaderTitleStyle is for the command title (e.g., "BRIGHTNESS")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "segclock-cfg brighter")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Clock:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamValueStyle is for parameter values
	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// SuccessTitleStyle is for the success result title
	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	// ErrorTitleStyle is for the error result title
	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// ErrorMessageStyle is for error message text
	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	// ResultValueStyle is for result detail values
	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// TroubleshootingItemStyle is for troubleshooting lines
	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)

	// SimulatorTitleStyle is the heading above the simulated display
	SimulatorTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	// SimulatorStatusStyle is for the brightness and press counter line
	SimulatorStatusStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	// PanelStyle frames the simulated display
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(MutedColor).
			Padding(1, 3)
)

// Result markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
)

// SegmentColor is the colour of a lit segment at brightness level (0..15).
// Level 0 is dim but still visible, as on the hardware.
func SegmentColor(level int) lipgloss.Color {
	level = display.ClampBrightness(level)
	const lo, hi = 0x40, 0xFF
	red := lo + (hi-lo)*level/display.MaxBrightness
	green := 0x10 + 0x20*level/display.MaxBrightness
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", red, green, green))
}

// SegmentStyle renders lit segments at brightness level.
func SegmentStyle(level int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(SegmentColor(level)).Bold(level > display.MaxBrightness/2)
}

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// IsTerminal reports whether stdin and stdout are both terminals, which the
// simulator needs.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

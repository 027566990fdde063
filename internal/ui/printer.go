package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Field is one key/value line in a header or result box. Fields keep the
// order they are given in.
type Field struct {
	Key   string
	Value string
}

// Printer provides methods for printing UI components to a writer.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Field) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Field) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints an error result box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting string) {
	p.Println(RenderErrorBox(title, err, troubleshooting, p.width))
}

func renderFields(fields []Field, keyStyle, valueStyle lipgloss.Style, indent string) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, keyStyle.Render(indent+f.Key+":")+" "+valueStyle.Render(f.Value))
	}
	return lines
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params []Field, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(command),
	)

	content := top
	if len(params) > 0 {
		divider := lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Render(strings.Repeat("─", width-6))
		lines := renderFields(params, HeaderParamKeyStyle, HeaderParamValueStyle, "")
		content = lipgloss.JoinVertical(lipgloss.Left, top, divider, strings.Join(lines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details []Field, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := []string{
		"",
		SuccessTitleStyle.Render(fmt.Sprintf("   %s  SUCCESS  ─  %s", SuccessMarker, title)),
		"",
	}
	lines = append(lines, renderFields(details, ResultKeyStyle, ResultValueStyle, "   ")...)
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SuccessColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box. troubleshooting may hold
// several lines.
func RenderErrorBox(title string, err error, troubleshooting string, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := []string{
		"",
		ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, title)),
		"",
	}
	if err != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+err.Error()), "")
	}
	if troubleshooting != "" {
		for _, tip := range strings.Split(troubleshooting, "\n") {
			lines = append(lines, TroubleshootingItemStyle.Render("   "+tip))
		}
		lines = append(lines, "")
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ErrorColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

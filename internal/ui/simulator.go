package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/segclock/internal/display"
	"github.com/muurk/segclock/internal/display/ht16k33"
)

// Button is pressed from the keyboard.
type Button interface {
	Tap()
}

// Messages delivered to the simulator model.
type (
	frameMsg      ht16k33.Frame
	brightnessMsg int
)

// simulatorKeyMap defines key bindings for the simulator
type simulatorKeyMap struct {
	Button key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k simulatorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Button, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k simulatorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Button, k.Quit}}
}

func newSimulatorKeyMap() simulatorKeyMap {
	return simulatorKeyMap{
		Button: key.NewBinding(
			key.WithKeys("b", " "),
			key.WithHelp("b/space", "press button"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// SimulatorModel is the Bubble Tea model behind Simulator.
type SimulatorModel struct {
	Title      string
	Frame      ht16k33.Frame
	Brightness int
	Presses    int

	button Button
	keys   simulatorKeyMap
	help   help.Model
}

// NewSimulatorModel creates a model showing a blank display at full
// brightness.
func NewSimulatorModel(title string, button Button) SimulatorModel {
	return SimulatorModel{
		Title:      title,
		Brightness: display.MaxBrightness,
		button:     button,
		keys:       newSimulatorKeyMap(),
		help:       help.New(),
	}
}

// Init implements tea.Model
func (m SimulatorModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m SimulatorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.Frame = ht16k33.Frame(msg)
	case brightnessMsg:
		m.Brightness = int(msg)
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Button):
			m.Presses++
			if m.button != nil {
				m.button.Tap()
			}
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model
func (m SimulatorModel) View() string {
	var b strings.Builder
	b.WriteString(SimulatorTitleStyle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(PanelStyle.Render(RenderFrame(m.Frame, SegmentStyle(m.Brightness))))
	b.WriteString("\n")
	b.WriteString(SimulatorStatusStyle.Render(fmt.Sprintf("brightness %d/%d  button presses %d",
		m.Brightness, display.MaxBrightness, m.Presses)))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SimulatorOptions configures a Simulator.
type SimulatorOptions struct {
	Title  string
	Button Button    // Optional; receives key presses
	Input  io.Reader // Default stdin
	Output io.Writer // Default stdout
}

// Simulator is a terminal display. Paints made before Run become the first
// frame shown.
type Simulator struct {
	progOpts []tea.ProgramOption

	mu         sync.Mutex
	initial    SimulatorModel
	program    *tea.Program
	brightness int
}

var (
	_ display.Painter = (*Simulator)(nil)
	_ display.Dimmer  = (*Simulator)(nil)
)

// NewSimulator creates the simulator. Call Run to show it.
func NewSimulator(opts SimulatorOptions) *Simulator {
	if opts.Title == "" {
		opts.Title = "segclock"
	}
	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	return &Simulator{
		progOpts:   progOpts,
		initial:    NewSimulatorModel(opts.Title, opts.Button),
		brightness: display.MaxBrightness,
	}
}

// ErrQuit is returned by Run when the user quits the simulator.
var ErrQuit = errors.New("simulator closed")

// Run shows the simulator until the user quits or ctx is cancelled. A quit
// from the keyboard returns ErrQuit.
func (s *Simulator) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.program != nil {
		s.mu.Unlock()
		return errors.New("simulator already started")
	}
	program := tea.NewProgram(s.initial, s.progOpts...)
	s.program = program
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, program.Quit)
	defer stop()

	_, err := program.Run()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("simulator: %w", err)
	}
	return ErrQuit
}

// send delivers msg to the running program, or folds it into the initial
// model before Run.
func (s *Simulator) send(msg tea.Msg) {
	s.mu.Lock()
	program := s.program
	if program == nil {
		next, _ := s.initial.Update(msg)
		s.initial = next.(SimulatorModel)
	}
	s.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// ShowTime shows hour:minute
func (s *Simulator) ShowTime(hour, minute int) error {
	s.send(frameMsg(ht16k33.TimeFrame(hour, minute)))
	return nil
}

// ShowNumber shows n right-aligned
func (s *Simulator) ShowNumber(n int) error {
	s.send(frameMsg(ht16k33.StringFrame(fmt.Sprintf("%4d", n))))
	return nil
}

// ShowString shows the first four characters of s
func (s *Simulator) ShowString(str string) error {
	s.send(frameMsg(ht16k33.StringFrame(str)))
	return nil
}

// SetBrightness changes how bright the lit segments are drawn.
func (s *Simulator) SetBrightness(level int) error {
	level = display.ClampBrightness(level)
	s.mu.Lock()
	s.brightness = level
	s.mu.Unlock()
	s.send(brightnessMsg(level))
	return nil
}

// Brightness returns the last level set
func (s *Simulator) Brightness() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brightness
}

// Package button turns presses of the clock's single button into display
// commands. A short press (released within two seconds) shows the address.
package button

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/muurk/segclock/internal/logging"
	"go.uber.org/zap"
)

// ShortPressLimit is the longest hold that still counts as a short press.
const ShortPressLimit = 2 * time.Second

// AddressShower starts the address display.
type AddressShower interface {
	ShowAddress() bool
}

// Handler tracks button state. Press and Release may come from different
// goroutines.
type Handler struct {
	clock  clock.Clock
	target AddressShower

	mu        sync.Mutex
	pressed   bool
	pressedAt time.Time
}

// NewHandler creates a handler. A nil clock uses the wall clock.
func NewHandler(c clock.Clock, target AddressShower) *Handler {
	if c == nil {
		c = clock.New()
	}
	return &Handler{clock: c, target: target}
}

// Press records the button going down.
func (h *Handler) Press() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pressed {
		return
	}
	h.pressed = true
	h.pressedAt = h.clock.Now()
	h.handle(true, 0)
}

// Release records the button coming up. A release without a press is ignored.
func (h *Handler) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.pressed {
		return
	}
	h.pressed = false
	h.handle(false, h.clock.Since(h.pressedAt))
}

// Tap is a press immediately followed by a release.
func (h *Handler) Tap() {
	h.Press()
	h.Release()
}

// Handle processes a raw edge: pressed is the new state and elapsed is how
// long the button was in the previous state.
func (h *Handler) Handle(pressed bool, elapsed time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handle(pressed, elapsed)
}

func (h *Handler) handle(pressed bool, elapsed time.Duration) {
	logging.Debug("Button edge",
		zap.Bool("pressed", pressed),
		zap.Duration("elapsed", elapsed),
	)
	if pressed || elapsed >= ShortPressLimit {
		return
	}
	if !h.target.ShowAddress() {
		logging.Warn("Button press dropped, display queue full")
	}
}

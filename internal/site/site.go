package site

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/muurk/segclock/internal/display"
	"github.com/muurk/segclock/internal/logging"
	"github.com/muurk/segclock/internal/protocol"
	"github.com/muurk/segclock/internal/settings"
	"github.com/muurk/segclock/internal/version"
	"go.uber.org/zap"
)

// DefaultRebootDelay is how long after the reboot reply the Rebooter runs.
const DefaultRebootDelay = 2 * time.Second

// Rebooter restarts the appliance.
type Rebooter interface {
	Reboot()
}

// RebootFunc adapts a function to Rebooter.
type RebootFunc func()

// Reboot calls f
func (f RebootFunc) Reboot() { f() }

// Refresher is told to repaint after a setting that affects the display changes.
type Refresher interface {
	ShowNow() bool
}

// Options configures a Site.
type Options struct {
	Title       string                // Page heading, default "segclock"
	Store       *settings.Store       // Required
	Dimmer      display.Dimmer        // Optional, receives brightness changes
	Zone        *display.Zone         // Optional, receives timezone changes
	Address     display.AddressSource // Optional, shown on the index page
	Refresher   Refresher             // Optional, repaints after a timezone change
	Rebooter    Rebooter              // Optional; without it /reboot only replies
	RebootDelay time.Duration         // Default DefaultRebootDelay
	Clock       clock.Clock           // Default wall clock
}

// Site holds the clock's page handlers.
type Site struct {
	opts Options
}

// New validates opts and fills defaults
func New(opts Options) (*Site, error) {
	if opts.Store == nil {
		return nil, errors.New("site requires a settings store")
	}
	if opts.Title == "" {
		opts.Title = "segclock"
	}
	if opts.Address == nil {
		opts.Address = display.StaticAddress("")
	}
	if opts.RebootDelay <= 0 {
		opts.RebootDelay = DefaultRebootDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Site{opts: opts}, nil
}

// Register adds the site's routes to r.
func (s *Site) Register(r *Router) {
	r.Handle(protocol.MethodGet, "/", s.handleIndex)
	r.Handle(protocol.MethodPost, "/", s.handleIndex)
	r.Handle(protocol.MethodPost, "/reboot", s.handleReboot)
	r.Handle(protocol.MethodPost, "/brighter", s.handleBrighter)
	r.Handle(protocol.MethodPost, "/dimmer", s.handleDimmer)
	r.Handle(protocol.MethodPost, "/config", s.handleConfig)
	r.Handle(protocol.MethodPost, "/updatecfg", s.handleUpdateConfig)
}

// Router returns a new router with the site's routes registered.
func (s *Site) Router() *Router {
	r := NewRouter()
	s.Register(r)
	return r
}

func (s *Site) handleIndex(_ context.Context, _ *protocol.Request) *protocol.Response {
	body, err := render("index.html.tmpl", indexPage{
		Title:      s.opts.Title,
		Version:    version.Version,
		Address:    s.opts.Address.Address(),
		Brightness: s.opts.Store.Settings().Brightness,
	})
	if err != nil {
		logging.Error("Failed to build index page", zap.Error(err))
		return protocol.NotFound()
	}
	return &protocol.Response{Status: protocol.StatusOK, Body: body}
}

func (s *Site) handleReboot(ctx context.Context, req *protocol.Request) *protocol.Response {
	resp := s.handleIndex(ctx, req)
	if s.opts.Rebooter == nil {
		logging.Warn("Reboot requested but no rebooter is configured")
		return resp
	}

	logging.Info("Reboot requested", zap.Duration("delay", s.opts.RebootDelay))
	resp.OnSent = func() {
		s.opts.Clock.AfterFunc(s.opts.RebootDelay, s.opts.Rebooter.Reboot)
	}
	return resp
}

func (s *Site) handleBrighter(_ context.Context, _ *protocol.Request) *protocol.Response {
	s.stepBrightness(+1)
	return protocol.NewResponse(protocol.StatusCreated, "")
}

func (s *Site) handleDimmer(_ context.Context, _ *protocol.Request) *protocol.Response {
	s.stepBrightness(-1)
	return protocol.NewResponse(protocol.StatusCreated, "")
}

// stepBrightness moves the level by delta within 0..15, persists it and
// applies it to the display. At either end of the range nothing changes.
func (s *Site) stepBrightness(delta int) {
	current := s.opts.Store.Settings().Brightness
	level := display.ClampBrightness(current + delta)
	if level == current {
		logging.Debug("Brightness already at limit", zap.Int("brightness", level))
		return
	}

	if _, err := s.opts.Store.Update(func(next *settings.Settings) error {
		next.Brightness = level
		return nil
	}); err != nil {
		logging.Warn("Failed to persist brightness", zap.Int("brightness", level), zap.Error(err))
	}

	if s.opts.Dimmer != nil {
		if err := s.opts.Dimmer.SetBrightness(level); err != nil {
			logging.Warn("Failed to apply brightness", zap.Int("brightness", level), zap.Error(err))
			return
		}
	}
	logging.Info("Brightness changed", zap.Int("brightness", level))
}

func (s *Site) handleConfig(_ context.Context, _ *protocol.Request) *protocol.Response {
	current := s.opts.Store.Settings()
	body, err := render("config.html.tmpl", configPage{
		Title:       s.opts.Title,
		SSID:        current.NetworkSSID,
		Password:    current.NetworkPassword,
		Timezone:    current.Timezone,
		MaxSSID:     settings.MaxSSIDLength,
		MaxPassword: settings.MaxPasswordLength,
	})
	if err != nil {
		logging.Error("Failed to build config page", zap.Error(err))
		return protocol.NotFound()
	}
	return &protocol.Response{Status: protocol.StatusOK, Body: body}
}

// formKeys are the settings the configuration form may change.
var formKeys = []string{settings.KeySSID, settings.KeyPassword, settings.KeyTimezone}

// handleUpdateConfig stores the submitted form. The reply is an empty 200
// either way; the page navigates back to the index regardless.
func (s *Site) handleUpdateConfig(_ context.Context, req *protocol.Request) *protocol.Response {
	body := req.BodyText()

	values := make(map[string]string, len(formKeys))
	for _, key := range formKeys {
		if v, ok := FetchValue(body, key); ok {
			values[key] = v
		}
	}

	if len(values) == 0 {
		logging.Warn("Configuration update carried no known keys")
		return protocol.NewResponse(protocol.StatusOK, "")
	}

	updated, err := s.opts.Store.SetMany(values)
	if err != nil {
		logging.Warn("Rejected configuration update", zap.Error(err))
		return protocol.NewResponse(protocol.StatusOK, "")
	}
	logging.Info("Configuration updated",
		zap.String("ssid", updated.NetworkSSID),
		zap.String("timezone", updated.Timezone),
	)

	if _, ok := values[settings.KeyTimezone]; ok && s.opts.Zone != nil {
		if err := s.opts.Zone.Set(updated.Timezone); err != nil {
			logging.Warn("Failed to apply timezone", zap.Error(err))
		} else if s.opts.Refresher != nil {
			s.opts.Refresher.ShowNow()
		}
	}
	return protocol.NewResponse(protocol.StatusOK, "")
}

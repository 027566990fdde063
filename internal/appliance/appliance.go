package appliance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/muurk/segclock/internal/button"
	"github.com/muurk/segclock/internal/discovery"
	"github.com/muurk/segclock/internal/display"
	"github.com/muurk/segclock/internal/display/ht16k33"
	"github.com/muurk/segclock/internal/i2c"
	"github.com/muurk/segclock/internal/logging"
	"github.com/muurk/segclock/internal/mirror"
	"github.com/muurk/segclock/internal/netinfo"
	"github.com/muurk/segclock/internal/server"
	"github.com/muurk/segclock/internal/settings"
	"github.com/muurk/segclock/internal/site"
	"github.com/muurk/segclock/internal/ui"
	"github.com/muurk/segclock/internal/version"
	"go.uber.org/zap"
)

// ErrReboot is returned by Run after a reboot was requested from the web
// interface. The caller should exit so its supervisor restarts it.
var ErrReboot = errors.New("reboot requested")

// Appliance is the wired clock: settings, display, web interface and
// button.
type Appliance struct {
	opts  Options
	clock clock.Clock

	store     *settings.Store
	zone      *display.Zone
	address   display.AddressSource
	painter   display.Painter
	dimmer    display.Dimmer
	simulator *ui.Simulator
	publisher *mirror.Publisher
	scheduler *display.Scheduler
	button    *button.Handler
	server    *server.Server

	closers []func() error

	rebooted atomic.Bool
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// Option adjusts how New builds the appliance.
type Option func(*Appliance)

// WithPainter replaces the display chosen by Options.Display.
func WithPainter(p display.Painter) Option {
	return func(a *Appliance) { a.painter = p }
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(a *Appliance) { a.clock = c }
}

// New builds the appliance from opts. Nothing runs until Run.
func New(opts Options, extra ...Option) (*Appliance, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	a := &Appliance{opts: opts, clock: clock.New()}
	for _, o := range extra {
		o(a)
	}

	store, err := settings.Open(opts.SettingsPath)
	if err != nil {
		return nil, err
	}
	a.store = store
	current := store.Settings()

	a.zone = display.NewZone(nil)
	if err := a.zone.Set(current.Timezone); err != nil {
		logging.Warn("Stored timezone unusable, using local time",
			zap.String("timezone", current.Timezone),
			zap.Error(err),
		)
	}

	a.address = netinfo.New(opts.Address, opts.Interface)

	if a.painter == nil {
		if err := a.openDisplay(); err != nil {
			a.closeAll()
			return nil, err
		}
	}
	if opts.MQTT.Broker != "" {
		if err := a.openMirror(); err != nil {
			a.closeAll()
			return nil, err
		}
	}
	if d, ok := a.painter.(display.Dimmer); ok {
		a.dimmer = d
		if err := d.SetBrightness(current.Brightness); err != nil {
			logging.Warn("Failed to apply stored brightness", zap.Error(err))
		}
	}

	a.scheduler = display.New(display.Options{
		Clock:     a.clock,
		Painter:   a.painter,
		Address:   a.address,
		Zone:      a.zone,
		QueueSize: opts.QueueSize,
	})
	a.button = button.NewHandler(a.clock, a.scheduler)

	web, err := site.New(site.Options{
		Title:     opts.Name,
		Store:     store,
		Dimmer:    a.dimmer,
		Zone:      a.zone,
		Address:   a.address,
		Refresher: a.scheduler,
		Rebooter:  site.RebootFunc(a.reboot),
		Clock:     a.clock,
	})
	if err != nil {
		a.closeAll()
		return nil, err
	}

	cfg := server.DefaultConfig()
	cfg.Host = opts.Host
	cfg.Port = opts.Port
	cfg.ReadTimeout = opts.ReadTimeout
	cfg.WriteTimeout = opts.WriteTimeout
	cfg.ListenRetries = opts.ListenRetries
	a.server, err = server.New(cfg, web.Router())
	if err != nil {
		a.closeAll()
		return nil, err
	}
	return a, nil
}

// openDisplay creates the painter named by Options.Display.
func (a *Appliance) openDisplay() error {
	kind := a.opts.Display
	if kind == DisplayAuto {
		kind = DisplayLog
		if ui.IsTerminal() {
			kind = DisplayTUI
		}
	}

	switch kind {
	case DisplayLog:
		a.painter = display.NewLogPainter()
	case DisplayTUI:
		a.simulator = ui.NewSimulator(ui.SimulatorOptions{Title: a.opts.Name, Button: a})
		a.painter = a.simulator
	case DisplayHT16K33:
		bus, err := i2c.Open(a.opts.I2CDevice)
		if err != nil {
			return err
		}
		a.addCloser(bus.Close)

		dev := ht16k33.New(bus)
		dev.Address = uint16(a.opts.I2CAddress)
		if err := dev.Configure(); err != nil {
			return err
		}
		a.addCloser(dev.Clear)
		a.painter = dev
	default:
		return fmt.Errorf("unknown display %q", kind)
	}
	logging.Info("Display selected", zap.String("display", kind))
	return nil
}

// openMirror wraps the painter so every paint is also published over MQTT.
// An unreachable broker is not fatal; the publisher keeps retrying.
func (a *Appliance) openMirror() error {
	m := a.opts.MQTT
	pub, err := mirror.NewPublisher(mirror.Options{
		Broker:   m.Broker,
		Topic:    m.Topic,
		ClientID: m.ClientID,
		Username: m.Username,
		Password: m.Password,
		Timeout:  m.Timeout,
		Clock:    a.clock,
	})
	if err != nil {
		return err
	}
	if err := pub.Connect(context.Background()); err != nil {
		logging.Warn("MQTT broker unavailable, will retry on later paints", zap.Error(err))
	}
	a.publisher = pub
	a.addCloser(pub.Close)
	a.painter = mirror.Wrap(a.painter, pub)
	return nil
}

// Run starts every part of the appliance and blocks until ctx is cancelled,
// the simulator is closed, the listener fails or a reboot is requested.
func (a *Appliance) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
	defer a.closeAll()

	logging.Info("Starting segclock",
		zap.String("version", version.Version),
		zap.String("name", a.opts.Name),
	)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				logging.Error("Component stopped", zap.String("component", name), zap.Error(err))
				errs <- err
				cancel()
			}
		}()
	}

	if a.simulator != nil {
		start("simulator", func(ctx context.Context) error {
			err := a.simulator.Run(ctx)
			if errors.Is(err, ui.ErrQuit) {
				logging.Info("Simulator closed")
				cancel()
				return nil
			}
			return err
		})
	}
	start("display", a.scheduler.Run)
	start("server", a.server.Run)

	a.scheduler.ShowNow()

	select {
	case <-a.server.Ready():
		if a.opts.Advertise {
			a.advertise()
		}
	case <-ctx.Done():
	}

	<-ctx.Done()
	wg.Wait()
	close(errs)

	if a.rebooted.Load() {
		return ErrReboot
	}
	return <-errs
}

func (a *Appliance) advertise() {
	port := a.opts.Port
	if tcp, ok := a.server.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	adv, err := discovery.Advertise(a.opts.Name, port, version.Version)
	if err != nil {
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}
	a.addCloser(func() error {
		adv.Shutdown()
		return nil
	})
}

// reboot stops Run with ErrReboot.
func (a *Appliance) reboot() {
	logging.Info("Rebooting")
	a.rebooted.Store(true)
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// Tap presses the button briefly. It lets the simulator and signal
// handlers share the appliance's button.
func (a *Appliance) Tap() {
	a.button.Tap()
}

// Button returns the appliance's button handler
func (a *Appliance) Button() *button.Handler {
	return a.button
}

// Scheduler returns the display scheduler
func (a *Appliance) Scheduler() *display.Scheduler {
	return a.scheduler
}

// Server returns the web server
func (a *Appliance) Server() *server.Server {
	return a.server
}

// Store returns the settings store
func (a *Appliance) Store() *settings.Store {
	return a.store
}

func (a *Appliance) addCloser(fn func() error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// closeAll releases resources in reverse order of acquisition.
func (a *Appliance) closeAll() {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logging.Debug("Error during shutdown", zap.Error(err))
		}
	}
}

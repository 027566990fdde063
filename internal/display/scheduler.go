package display

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/muurk/segclock/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultQueueSize is the command queue capacity, and also its minimum.
	DefaultQueueSize = 10

	// Forever means block on the queue with no timeout.
	Forever time.Duration = -1

	// octetInterval is how long each address octet stays on the display.
	octetInterval = time.Second
	// flipLead is how far ahead of the minute change the worker wakes up.
	flipLead = 2 * time.Second
	// minWait is the polling interval once inside the flip lead.
	minWait = 500 * time.Millisecond
	// repaintWindow is how far into a new minute a wake-up still repaints.
	repaintWindow = 5 * time.Second
	// lastOctet is the index of the final address octet.
	lastOctet = 3
)

// Options configures a Scheduler.
type Options struct {
	Clock     clock.Clock   // Defaults to the wall clock
	Painter   Painter       // Required
	Address   AddressSource // Defaults to an empty address (octets show 0)
	Zone      *Zone         // Defaults to the local zone
	QueueSize int           // Defaults to DefaultQueueSize; smaller values are raised to it
}

// Scheduler decides what the display shows. Commands are posted from any
// goroutine; the display state is owned by the single worker running Run.
type Scheduler struct {
	clock   clock.Clock
	painter Painter
	address AddressSource
	zone    *Zone
	queue   chan Command

	// Worker-owned state.
	mode  Mode
	wait  time.Duration
	octet int
}

// New creates a scheduler in ModeShowTimeNow with an unbounded wait, so
// nothing is painted until the first command arrives.
func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Address == nil {
		opts.Address = StaticAddress("")
	}
	if opts.Zone == nil {
		opts.Zone = NewZone(nil)
	}
	if opts.QueueSize < DefaultQueueSize {
		opts.QueueSize = DefaultQueueSize
	}

	return &Scheduler{
		clock:   opts.Clock,
		painter: opts.Painter,
		address: opts.Address,
		zone:    opts.Zone,
		queue:   make(chan Command, opts.QueueSize),
		mode:    ModeShowTimeNow,
		wait:    Forever,
	}
}

// Send posts cmd without blocking. It reports false when the queue is full
// and the command was dropped.
func (s *Scheduler) Send(cmd Command) bool {
	select {
	case s.queue <- cmd:
		return true
	default:
		logging.Warn("Display queue full, command dropped",
			zap.String("command", cmd.String()),
		)
		return false
	}
}

// ShowNow asks for the time to be repainted immediately.
func (s *Scheduler) ShowNow() bool {
	return s.Send(CommandShowNow)
}

// ShowAddress asks for the address to be shown one octet at a time.
func (s *Scheduler) ShowAddress() bool {
	return s.Send(CommandShowAddress)
}

// Run is the display worker. It returns nil when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.painter == nil {
		return errors.New("display scheduler has no painter")
	}

	logging.Info("Display scheduler started",
		zap.String("zone", s.zone.Name()),
		zap.Int("queue_size", cap(s.queue)),
	)

	for {
		wait := s.nextWait()

		cmd, received, err := s.receive(ctx, wait)
		if err != nil {
			logging.Info("Display scheduler stopped")
			return nil
		}
		s.step(cmd, received)
	}
}

// nextWait returns how long the worker should block on the queue.
func (s *Scheduler) nextWait() time.Duration {
	if s.mode == ModeWaitForMinuteFlip {
		s.wait = WaitUntilFlip(s.now())
	}
	return s.wait
}

// receive blocks for a command, a timeout or cancellation.
func (s *Scheduler) receive(ctx context.Context, wait time.Duration) (Command, bool, error) {
	if wait == Forever {
		select {
		case <-ctx.Done():
			return 0, false, ctx.Err()
		case cmd := <-s.queue:
			return cmd, true, nil
		}
	}

	timer := s.clock.Timer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, false, ctx.Err()
	case cmd := <-s.queue:
		return cmd, true, nil
	case <-timer.C:
		return 0, false, nil
	}
}

// step applies a received command, if any, and then acts on the mode.
func (s *Scheduler) step(cmd Command, received bool) {
	if received {
		s.mode = cmd.mode()
		if cmd == CommandShowAddress {
			s.octet = 0
		}
		logging.Debug("Display command received",
			zap.String("command", cmd.String()),
			zap.String("mode", s.mode.String()),
		)
	}

	switch s.mode {
	case ModeShowTimeNow:
		s.paintTime()
		s.mode = ModeWaitForMinuteFlip

	case ModeWaitForMinuteFlip:
		if sinceMinute(s.now()) < repaintWindow {
			s.paintTime()
		}

	case ModeShowAddressOctet:
		if s.octet <= lastOctet {
			s.paintOctet(s.octet)
			s.wait = octetInterval
			s.octet++
			return
		}
		s.paintTime()
		s.mode = ModeWaitForMinuteFlip
	}
}

func (s *Scheduler) now() time.Time {
	return s.clock.Now().In(s.zone.Location())
}

func (s *Scheduler) paintTime() {
	now := s.now()
	hour := Hour12(now.Hour())
	if err := s.painter.ShowTime(hour, now.Minute()); err != nil {
		logging.Warn("Failed to paint time", zap.Error(err))
		return
	}
	logging.Debug("Painted time", zap.String("shown", FormatTime(hour, now.Minute())))
}

func (s *Scheduler) paintOctet(n int) {
	v := Octet(s.address.Address(), n)
	if err := s.painter.ShowNumber(v); err != nil {
		logging.Warn("Failed to paint address octet",
			zap.Int("octet", n),
			zap.Error(err),
		)
		return
	}
	logging.Debug("Painted address octet", zap.Int("octet", n), zap.Int("value", v))
}

// Mode returns the worker's current mode. Only safe to call from the worker
// or while Run is not active.
func (s *Scheduler) Mode() Mode {
	return s.mode
}

// sinceMinute returns how far now is into its minute.
func sinceMinute(now time.Time) time.Duration {
	return time.Duration(now.Second())*time.Second + time.Duration(now.Nanosecond())
}

// WaitUntilFlip returns how long to sleep so the worker wakes flipLead before
// the next minute starts, never less than minWait.
func WaitUntilFlip(now time.Time) time.Duration {
	wait := time.Minute - sinceMinute(now) - flipLead
	if wait < minWait {
		return minWait
	}
	return wait
}

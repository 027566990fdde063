package display

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

// recordingPainter remembers every paint as a short string.
type recordingPainter struct {
	mu      sync.Mutex
	painted []string
	notify  chan string
	err     error
}

func newRecordingPainter() *recordingPainter {
	return &recordingPainter{notify: make(chan string, 32)}
}

func (p *recordingPainter) record(s string) error {
	p.mu.Lock()
	p.painted = append(p.painted, s)
	p.mu.Unlock()
	select {
	case p.notify <- s:
	default:
	}
	return p.err
}

func (p *recordingPainter) ShowTime(hour, minute int) error {
	return p.record(fmt.Sprintf("time %d:%02d", hour, minute))
}

func (p *recordingPainter) ShowNumber(n int) error {
	return p.record(fmt.Sprintf("number %d", n))
}

func (p *recordingPainter) ShowString(s string) error {
	return p.record("string " + s)
}

func (p *recordingPainter) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.painted...)
}

func newTestScheduler(t *testing.T, at time.Time, addr string) (*Scheduler, *clock.Mock, *recordingPainter) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(at)
	painter := newRecordingPainter()
	s := New(Options{
		Clock:   mock,
		Painter: painter,
		Address: StaticAddress(addr),
		Zone:    NewZone(time.UTC),
	})
	return s, mock, painter
}

func TestWaitUntilFlip(t *testing.T) {
	base := time.Date(2026, 10, 19, 9, 41, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"top of minute", base, 58 * time.Second},
		{"half past", base.Add(30 * time.Second), 28 * time.Second},
		{"second 57", base.Add(57 * time.Second), time.Second},
		{"floor starts", base.Add(57*time.Second + 500*time.Millisecond), 500 * time.Millisecond},
		{"just before lead", base.Add(57*time.Second + 900*time.Millisecond), 500 * time.Millisecond},
		{"last millisecond before lead", base.Add(57*time.Second + 999*time.Millisecond), 500 * time.Millisecond},
		{"second 58", base.Add(58 * time.Second), 500 * time.Millisecond},
		{"second 59", base.Add(59*time.Second + 900*time.Millisecond), 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WaitUntilFlip(tt.now); got != tt.want {
				t.Errorf("WaitUntilFlip() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitAtSecond58IsShort(t *testing.T) {
	s, _, _ := newTestScheduler(t, time.Date(2026, 10, 19, 9, 41, 58, 0, time.UTC), "")
	s.mode = ModeWaitForMinuteFlip

	wait := s.nextWait()
	if wait <= 0 || wait > 2000*time.Millisecond {
		t.Errorf("nextWait() = %v, want in (0, 2s]", wait)
	}
}

func TestHour12(t *testing.T) {
	tests := map[int]int{0: 12, 1: 1, 11: 11, 12: 12, 13: 1, 23: 11}
	for in, want := range tests {
		if got := Hour12(in); got != want {
			t.Errorf("Hour12(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestOctet(t *testing.T) {
	tests := []struct {
		addr string
		n    int
		want int
	}{
		{"192.168.1.42", 0, 192},
		{"192.168.1.42", 1, 168},
		{"192.168.1.42", 2, 1},
		{"192.168.1.42", 3, 42},
		{"192.168.1", 3, 0},
		{"", 0, 0},
		{"10.x.0.1", 1, 0},
		{"10.0.0.1", 4, 0},
		{"10.0.0.1", -1, 0},
	}

	for _, tt := range tests {
		if got := Octet(tt.addr, tt.n); got != tt.want {
			t.Errorf("Octet(%q, %d) = %d, want %d", tt.addr, tt.n, got, tt.want)
		}
	}
}

func TestInitialStateWaitsForever(t *testing.T) {
	s, _, painter := newTestScheduler(t, time.Date(2026, 10, 19, 9, 41, 10, 0, time.UTC), "")

	if s.Mode() != ModeShowTimeNow {
		t.Errorf("initial mode = %v, want %v", s.Mode(), ModeShowTimeNow)
	}
	if w := s.nextWait(); w != Forever {
		t.Errorf("initial wait = %v, want Forever", w)
	}
	if got := painter.all(); len(got) != 0 {
		t.Errorf("painted %v before any command", got)
	}
}

func TestShowNowPaintsTwelveHourTime(t *testing.T) {
	s, _, painter := newTestScheduler(t, time.Date(2026, 10, 19, 15, 7, 10, 0, time.UTC), "")

	s.step(CommandShowNow, true)

	if got := painter.all(); len(got) != 1 || got[0] != "time 3:07" {
		t.Errorf("painted %v, want [time 3:07]", got)
	}
	if s.Mode() != ModeWaitForMinuteFlip {
		t.Errorf("mode = %v, want %v", s.Mode(), ModeWaitForMinuteFlip)
	}
}

func TestShowNowRespectsZone(t *testing.T) {
	s, _, painter := newTestScheduler(t, time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC), "")
	s.zone = NewZone(time.FixedZone("plus2", 2*60*60))

	s.step(CommandShowNow, true)

	if got := painter.all(); len(got) != 1 || got[0] != "time 2:30" {
		t.Errorf("painted %v, want [time 2:30]", got)
	}
}

func TestMinuteFlipRepaintsOnce(t *testing.T) {
	s, mock, painter := newTestScheduler(t, time.Date(2026, 10, 19, 13, 59, 30, 0, time.UTC), "")
	s.step(CommandShowNow, true)

	for i := 0; i < 10 && len(painter.all()) < 2; i++ {
		mock.Add(s.nextWait())
		s.step(0, false)
	}

	got := painter.all()
	want := []string{"time 1:59", "time 2:00"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("painted %v, want %v", got, want)
	}
	if now := mock.Now(); now.Second() != 0 {
		t.Errorf("repainted at %v, want the first second of the minute", now)
	}

	// The next wake-up is just before 14:01, with no paint in between.
	mock.Add(s.nextWait())
	s.step(0, false)
	if n := len(painter.all()); n != 2 {
		t.Errorf("paint count = %d after sleeping to the lead, want 2", n)
	}
}

func TestWaitingDoesNotRepaintMidMinute(t *testing.T) {
	s, mock, painter := newTestScheduler(t, time.Date(2026, 10, 19, 8, 15, 20, 0, time.UTC), "")
	s.mode = ModeWaitForMinuteFlip

	mock.Add(5 * time.Second)
	s.step(0, false)

	if got := painter.all(); len(got) != 0 {
		t.Errorf("painted %v mid-minute, want nothing", got)
	}
}

func TestAddressSequenceAcrossMinuteBoundary(t *testing.T) {
	s, mock, painter := newTestScheduler(t, time.Date(2026, 10, 19, 13, 59, 58, 0, time.UTC), "10.0.0.7")
	s.mode = ModeWaitForMinuteFlip

	s.step(CommandShowAddress, true)
	for i := 0; i < 4; i++ {
		wait := s.nextWait()
		if wait != time.Second {
			t.Fatalf("wait after octet %d = %v, want 1s", i, wait)
		}
		mock.Add(wait)
		s.step(0, false)
	}

	got := painter.all()
	want := []string{"number 10", "number 0", "number 0", "number 7", "time 2:00"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("painted %v, want %v", got, want)
	}
	if s.Mode() != ModeWaitForMinuteFlip {
		t.Errorf("mode = %v, want %v", s.Mode(), ModeWaitForMinuteFlip)
	}
}

func TestShowAddressRestartsFromFirstOctet(t *testing.T) {
	s, mock, painter := newTestScheduler(t, time.Date(2026, 10, 19, 9, 0, 10, 0, time.UTC), "1.2.3.4")

	s.step(CommandShowAddress, true)
	mock.Add(time.Second)
	s.step(0, false)
	s.step(CommandShowAddress, true)

	got := painter.all()
	want := []string{"number 1", "number 2", "number 1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("painted %v, want %v", got, want)
	}
}

func TestShowNowInterruptsAddress(t *testing.T) {
	s, _, painter := newTestScheduler(t, time.Date(2026, 10, 19, 9, 5, 10, 0, time.UTC), "1.2.3.4")

	s.step(CommandShowAddress, true)
	s.step(CommandShowNow, true)

	got := painter.all()
	want := []string{"number 1", "time 9:05"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("painted %v, want %v", got, want)
	}
}

func TestPainterErrorsDoNotStopTheSequence(t *testing.T) {
	s, mock, painter := newTestScheduler(t, time.Date(2026, 10, 19, 9, 5, 10, 0, time.UTC), "1.2.3.4")
	painter.err = errors.New("bus error")

	s.step(CommandShowAddress, true)
	mock.Add(time.Second)
	s.step(0, false)

	if n := len(painter.all()); n != 2 {
		t.Errorf("paint attempts = %d, want 2", n)
	}
}

func TestSendDropsWhenFull(t *testing.T) {
	s, _, _ := newTestScheduler(t, time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC), "")

	for i := 0; i < DefaultQueueSize; i++ {
		if !s.ShowNow() {
			t.Fatalf("send %d dropped, want accepted", i)
		}
	}
	if s.ShowAddress() {
		t.Error("send to a full queue should be dropped")
	}
}

func TestQueueSizeMinimum(t *testing.T) {
	s := New(Options{Painter: newRecordingPainter(), QueueSize: 3})
	if got := cap(s.queue); got != DefaultQueueSize {
		t.Errorf("queue capacity = %d, want %d", got, DefaultQueueSize)
	}
	s = New(Options{Painter: newRecordingPainter(), QueueSize: 32})
	if got := cap(s.queue); got != 32 {
		t.Errorf("queue capacity = %d, want 32", got)
	}
}

func TestRunPaintsOnCommandAndStops(t *testing.T) {
	s, _, painter := newTestScheduler(t, time.Date(2026, 10, 19, 21, 45, 10, 0, time.UTC), "172.16.5.9")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.ShowNow()
	select {
	case got := <-painter.notify:
		if got != "time 9:45" {
			t.Errorf("painted %q, want time 9:45", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ShowNow was not painted")
	}

	s.ShowAddress()
	select {
	case got := <-painter.notify:
		if got != "number 172" {
			t.Errorf("painted %q, want number 172", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ShowAddress was not painted")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRunWithoutPainter(t *testing.T) {
	s := New(Options{})
	if err := s.Run(context.Background()); err == nil {
		t.Error("Run() without a painter should fail")
	}
}

func TestModeString(t *testing.T) {
	tests := map[Mode]string{
		ModeShowTimeNow:       "show_time_now",
		ModeWaitForMinuteFlip: "wait_for_minute_flip",
		ModeShowAddressOctet:  "show_address_octet",
		Mode(9):               "mode(9)",
	}
	for m, want := range tests {
		if got := m.String(); got != want {
			t.Errorf("Mode.String() = %q, want %q", got, want)
		}
	}
}

package button

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

type countingTarget struct{ n int }

func (c *countingTarget) ShowAddress() bool {
	c.n++
	return true
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name    string
		pressed bool
		elapsed time.Duration
		want    int
	}{
		{"press does nothing", true, 0, 0},
		{"quick release", false, 100 * time.Millisecond, 1},
		{"release just under limit", false, ShortPressLimit - time.Millisecond, 1},
		{"release at limit", false, ShortPressLimit, 0},
		{"long hold", false, 5 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &countingTarget{}
			NewHandler(nil, target).Handle(tt.pressed, tt.elapsed)
			if target.n != tt.want {
				t.Errorf("ShowAddress calls = %d, want %d", target.n, tt.want)
			}
		})
	}
}

func TestPressRelease(t *testing.T) {
	mock := clock.NewMock()
	target := &countingTarget{}
	h := NewHandler(mock, target)

	h.Press()
	mock.Add(time.Second)
	h.Release()
	if target.n != 1 {
		t.Fatalf("short press: calls = %d, want 1", target.n)
	}

	h.Press()
	mock.Add(3 * time.Second)
	h.Release()
	if target.n != 1 {
		t.Errorf("long press: calls = %d, want 1", target.n)
	}
}

func TestReleaseWithoutPress(t *testing.T) {
	target := &countingTarget{}
	NewHandler(clock.NewMock(), target).Release()
	if target.n != 0 {
		t.Errorf("calls = %d, want 0", target.n)
	}
}

func TestTap(t *testing.T) {
	target := &countingTarget{}
	h := NewHandler(clock.NewMock(), target)
	h.Tap()
	h.Tap()
	if target.n != 2 {
		t.Errorf("calls = %d, want 2", target.n)
	}
}

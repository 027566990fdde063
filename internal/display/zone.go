package display

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Zone holds the timezone the clock displays. It can be changed from any
// goroutine while the scheduler is running.
type Zone struct {
	loc atomic.Pointer[time.Location]
}

// NewZone returns a zone set to loc, or to the local zone when loc is nil.
func NewZone(loc *time.Location) *Zone {
	if loc == nil {
		loc = time.Local
	}
	z := &Zone{}
	z.loc.Store(loc)
	return z
}

// Set switches to the named IANA zone. An empty name selects UTC.
func (z *Zone) Set(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	z.loc.Store(loc)
	return nil
}

// Location returns the current zone
func (z *Zone) Location() *time.Location {
	if z == nil {
		return time.Local
	}
	if loc := z.loc.Load(); loc != nil {
		return loc
	}
	return time.Local
}

// Name returns the current zone name
func (z *Zone) Name() string {
	return z.Location().String()
}

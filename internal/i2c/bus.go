// Package i2c provides host access to an I2C adapter through the Linux
// i2c-dev interface (/dev/i2c-N). Bus satisfies tinygo.org/x/drivers.I2C so
// device drivers written against that interface run unchanged on a
// Raspberry Pi style host.
package i2c

import (
	"errors"
	"fmt"
)

// DefaultDevice is the adapter exposed on the header pins of most boards.
const DefaultDevice = "/dev/i2c-1"

// ErrUnsupported is returned by Open on platforms without i2c-dev.
var ErrUnsupported = errors.New("i2c-dev is not supported on this platform")

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("i2c bus is closed")

// TxError describes a failed transfer.
type TxError struct {
	Addr uint16
	Op   string
	Err  error
}

func (e *TxError) Error() string {
	return fmt.Sprintf("i2c %s at 0x%02x: %v", e.Op, e.Addr, e.Err)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

//go:build !linux

package i2c

import "tinygo.org/x/drivers"

// Bus is unavailable off Linux; Open always fails.
type Bus struct{}

var _ drivers.I2C = (*Bus)(nil)

// Open reports ErrUnsupported.
func Open(path string) (*Bus, error) {
	return nil, ErrUnsupported
}

// Tx always fails
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return ErrUnsupported
}

// ReadRegister always fails
func (b *Bus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return ErrUnsupported
}

// WriteRegister always fails
func (b *Bus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return ErrUnsupported
}

// Path returns an empty string
func (b *Bus) Path() string {
	return ""
}

// Close does nothing
func (b *Bus) Close() error {
	return nil
}

//go:build linux

package i2c

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
	"tinygo.org/x/drivers"
)

// i2cSlave is the i2c-dev ioctl that selects the target address.
const i2cSlave = 0x0703

// Bus is an open i2c-dev adapter. Transfers are serialised.
type Bus struct {
	mu     sync.Mutex
	fd     int
	path   string
	target int
}

var _ drivers.I2C = (*Bus)(nil)

// Open opens an i2c-dev adapter such as /dev/i2c-1.
func Open(path string) (*Bus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Bus{fd: fd, path: path, target: -1}, nil
}

// Tx writes w and then reads len(r) bytes from the device at addr.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fd < 0 {
		return ErrClosed
	}
	if b.target != int(addr) {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return &TxError{Addr: addr, Op: "select", Err: err}
		}
		b.target = int(addr)
	}
	if len(w) > 0 {
		n, err := unix.Write(b.fd, w)
		if err != nil {
			return &TxError{Addr: addr, Op: "write", Err: err}
		}
		if n != len(w) {
			return &TxError{Addr: addr, Op: "write", Err: fmt.Errorf("short write %d/%d", n, len(w))}
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(b.fd, r)
		if err != nil {
			return &TxError{Addr: addr, Op: "read", Err: err}
		}
		if n != len(r) {
			return &TxError{Addr: addr, Op: "read", Err: fmt.Errorf("short read %d/%d", n, len(r))}
		}
	}
	return nil
}

// ReadRegister reads len(buf) bytes starting at register reg.
func (b *Bus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

// WriteRegister writes buf starting at register reg.
func (b *Bus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, reg)
	w = append(w, buf...)
	return b.Tx(uint16(addr), w, nil)
}

// Path returns the device path
func (b *Bus) Path() string {
	return b.path
}

// Close releases the adapter. Closing twice is harmless.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}

// Package ht16k33 drives a 4-digit 7-segment display behind an HT16K33 LED
// controller.
//
// Display RAM layout used by the backpack:
//
//	address 0: digit 1
//	address 2: digit 2
//	address 4: colon (bit 1)
//	address 6: digit 3
//	address 8: digit 4
package ht16k33

import (
	"fmt"
	"sync"

	"github.com/muurk/segclock/internal/display"
	"tinygo.org/x/drivers"
)

// DefaultAddress is the controller's I2C address with no address jumpers set.
const DefaultAddress = 0x70

const (
	cmdOscillatorOn = 0x21
	cmdRowOutput    = 0xA0
	cmdDisplayOn    = 0x81 // display on, blink off
	cmdBrightness   = 0xE0

	ramSize  = 16
	colonBit = 0x02
)

// digitAddr are the display RAM addresses of the four digits, left to right.
var digitAddr = [4]int{0, 2, 6, 8}

const colonAddr = 4

// Device is an HT16K33 display on an I2C bus. It implements display.Painter
// and display.Dimmer.
type Device struct {
	bus     drivers.I2C
	Address uint16

	mu         sync.Mutex
	brightness int
}

var (
	_ display.Painter = (*Device)(nil)
	_ display.Dimmer  = (*Device)(nil)
)

// New returns a device at DefaultAddress. Call Configure before painting.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: DefaultAddress, brightness: display.MaxBrightness}
}

// Configure starts the oscillator, clears display RAM, turns the display on
// and sets full brightness.
func (d *Device) Configure() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, cmd := range []byte{cmdOscillatorOn, cmdRowOutput} {
		if err := d.command(cmd); err != nil {
			return fmt.Errorf("ht16k33 at 0x%02x not responding: %w", d.Address, err)
		}
	}
	if err := d.writeRAM([ramSize]byte{}); err != nil {
		return err
	}
	if err := d.command(cmdDisplayOn); err != nil {
		return err
	}
	d.brightness = display.MaxBrightness
	return d.command(cmdBrightness | display.MaxBrightness)
}

// ShowTime shows hour:minute with the colon lit. A single-digit hour leaves
// the first digit blank.
func (d *Device) ShowTime(hour, minute int) error {
	return d.showFrame(TimeFrame(hour, minute))
}

// ShowNumber shows n right-aligned in four columns.
func (d *Device) ShowNumber(n int) error {
	return d.ShowString(fmt.Sprintf("%4d", n))
}

// ShowString shows the first four characters of s, padding with blanks.
func (d *Device) ShowString(s string) error {
	return d.showFrame(StringFrame(s))
}

func (d *Device) showFrame(f Frame) error {
	var ram [ramSize]byte
	for i, addr := range digitAddr {
		ram[addr] = f.Digits[i]
	}
	if f.Colon {
		ram[colonAddr] = colonBit
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRAM(ram)
}

// SetBrightness sets the dimming level, clamped to 0..15.
func (d *Device) SetBrightness(level int) error {
	level = display.ClampBrightness(level)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.command(cmdBrightness | byte(level)); err != nil {
		return err
	}
	d.brightness = level
	return nil
}

// Brightness returns the last level set
func (d *Device) Brightness() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// Clear blanks every digit and the colon.
func (d *Device) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeRAM([ramSize]byte{})
}

func (d *Device) command(cmd byte) error {
	return d.bus.Tx(d.Address, []byte{cmd}, nil)
}

// writeRAM writes all of display RAM starting at address 0.
func (d *Device) writeRAM(ram [ramSize]byte) error {
	buf := make([]byte, 0, ramSize+1)
	buf = append(buf, 0x00)
	buf = append(buf, ram[:]...)
	if err := d.bus.Tx(d.Address, buf, nil); err != nil {
		return fmt.Errorf("failed to write display RAM: %w", err)
	}
	return nil
}

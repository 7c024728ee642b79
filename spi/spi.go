// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package spi provides the transport layer for SPI attached devices.
//
// The Bus interface is the capability device drivers depend on. This package
// provides a bit bashed Bus over GPIO lines and an adapter for register level
// SPI master peripherals. Other packages provide Linux spidev and TinyGo
// adapters, and test doubles.
package spi

import (
	"errors"
	"runtime"
	"time"
)

// Mode is the SPI mode number, where clock polarity (CPOL) is the high order
// bit and clock phase (CPHA) the low order bit.
type Mode uint8

const (
	// Mode0 idles the clock low and samples on the rising edge.
	Mode0 Mode = iota
	// Mode1 idles the clock low and samples on the falling edge.
	Mode1
	// Mode2 idles the clock high and samples on the falling edge.
	Mode2
	// Mode3 idles the clock high and samples on the rising edge.
	Mode3
)

// CPOL returns the clock polarity of the mode.
func (m Mode) CPOL() int {
	return int(m>>1) & 0x01
}

// CPHA returns the clock phase of the mode.
func (m Mode) CPHA() int {
	return int(m) & 0x01
}

// PeripheralClockHz is the fixed peripheral clock the bus clock divider is
// applied to.
const PeripheralClockHz = 16000000

// Config is the persistent bus timing configuration.
type Config struct {
	Mode Mode
	// ClockDivider is the ratio of the peripheral clock to the bus clock.
	ClockDivider uint8
	// LSBFirst shifts the least significant bit first. The default is MSB
	// first.
	LSBFirst bool
}

// ClockHz returns the bus clock rate implied by the divider.
func (c Config) ClockHz() uint32 {
	d := uint32(c.ClockDivider)
	if d == 0 {
		d = 1
	}
	return PeripheralClockHz / d
}

// Divider returns the clock divider that brings the peripheral clock down to
// no more than busHz.
//
// The result is clamped to the range of the 8-bit divider register.
func Divider(peripheralHz, busHz uint32) uint8 {
	if busHz == 0 {
		return 0xff
	}
	d := (peripheralHz + busHz - 1) / busHz
	switch {
	case d < 1:
		return 1
	case d > 0xff:
		return 0xff
	}
	return uint8(d)
}

// Bus is a synchronous serial bus connected to a single device.
//
// All operations block until the bus operation completes.
type Bus interface {
	// Configure sets the bus timing. Must be called before any transaction.
	Configure(cfg Config) error

	// Select asserts the device select line.
	Select() error

	// Deselect deasserts the device select line.
	Deselect() error

	// Transfer exchanges one byte with the device.
	Transfer(out byte) (byte, error)

	// ReadWord returns the last two bytes shifted in from the device, the
	// first received in the high byte, without clocking any further data.
	ReadWord() (uint16, error)

	// Close releases the resources allocated to the bus.
	Close() error
}

var (
	// ErrBusTimeout indicates the bus did not become idle within the
	// allowed time.
	ErrBusTimeout = errors.New("bus timeout")

	// ErrNotSelected indicates a transfer was attempted without the device
	// being selected.
	ErrNotSelected = errors.New("device not selected")

	// ErrClosed indicates the bus is closed.
	ErrClosed = errors.New("closed")

	// ErrSharedDataLine indicates the MOSI and MISO lines are the same line,
	// which the bit bashed SPI does not support.
	ErrSharedDataLine = errors.New("MOSI and MISO must be separate lines")
)

// WaitIdle polls busy until it reports false.
//
// Returns ErrBusTimeout if the bus is still busy after timeout. A zero
// timeout waits forever. A zero interval yields the processor between polls
// rather than sleeping.
func WaitIdle(busy func() bool, timeout, interval time.Duration) error {
	if !busy() {
		return nil
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for busy() {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrBusTimeout
		}
		if interval > 0 {
			time.Sleep(interval)
		} else {
			runtime.Gosched()
		}
	}
	return nil
}

// Shifter tracks the two most recent bytes shifted in from a device.
//
// It provides the ReadWord semantics for buses that have no receive register
// of their own.
type Shifter uint16

// Shift records a received byte.
func (s *Shifter) Shift(b byte) {
	*s = Shifter(uint16(*s)<<8 | uint16(b))
}

// Word returns the last two bytes received, the older in the high byte.
func (s Shifter) Word() uint16 {
	return uint16(s)
}

// Reset clears the received history.
func (s *Shifter) Reset() {
	*s = 0
}

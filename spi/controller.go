// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package spi

import (
	"fmt"
	"time"
)

// Controller is a register level SPI master peripheral, such as those found
// on microcontrollers, where transfers are started by writing a data register
// and completion is indicated by a busy flag.
type Controller interface {
	// Configure applies the bus timing to the peripheral.
	Configure(cfg Config) error

	// SetSelect drives the slave select lines, one bit per slave, with a
	// set bit asserting the corresponding select.
	SetSelect(mask uint8)

	// Start starts an 8-bit transfer of b.
	Start(b byte)

	// Busy returns true while a transfer is in progress.
	Busy() bool

	// Data8 returns the last byte received.
	Data8() byte

	// Data16 returns the receive register as a 16-bit value.
	Data16() uint16
}

// ControllerBus is a Bus on a register level SPI controller.
//
// Every wait on the busy flag is bounded by the timeout.
type ControllerBus struct {
	c        Controller
	slave    uint
	timeout  time.Duration
	interval time.Duration
	selected bool
	closed   bool
}

// NewControllerBus creates a Bus for the device on the given slave select of
// the controller.
//
// The slave must be one of the 8 select lines, 0 to 7.
func NewControllerBus(c Controller, slave uint, options ...ControllerOption) (*ControllerBus, error) {
	if slave >= maxSlaves {
		return nil, ErrorInvalidSlave(slave)
	}
	b := ControllerBus{c: c, slave: slave, timeout: 10 * time.Millisecond}
	for _, option := range options {
		option(&b)
	}
	return &b, nil
}

// maxSlaves is the number of select lines in the select mask.
const maxSlaves = 8

// ErrorInvalidSlave indicates the slave select is beyond those supported by
// the controller.
type ErrorInvalidSlave uint

func (e ErrorInvalidSlave) Error() string {
	return fmt.Sprintf("slave %d out of range", uint(e))
}

// Close deselects the device and detaches the bus from the controller.
func (b *ControllerBus) Close() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	if b.selected {
		b.selected = false
		b.c.SetSelect(0)
	}
	return nil
}

// Configure applies the bus timing to the controller.
func (b *ControllerBus) Configure(cfg Config) error {
	if b.closed {
		return ErrClosed
	}
	return b.c.Configure(cfg)
}

// Select asserts the slave select, waiting for the controller to be idle
// both before and after.
func (b *ControllerBus) Select() error {
	return b.setSelect(uint8(1) << b.slave)
}

// Deselect deasserts the slave select, waiting for the controller to be idle
// both before and after.
func (b *ControllerBus) Deselect() error {
	return b.setSelect(0)
}

func (b *ControllerBus) setSelect(mask uint8) error {
	if b.closed {
		return ErrClosed
	}
	err := b.wait()
	if err != nil {
		return err
	}
	b.c.SetSelect(mask)
	b.selected = mask != 0
	return b.wait()
}

// Transfer starts a byte transfer and waits for it to complete.
func (b *ControllerBus) Transfer(out byte) (byte, error) {
	if b.closed {
		return 0, ErrClosed
	}
	if !b.selected {
		return 0, ErrNotSelected
	}
	b.c.Start(out)
	err := b.wait()
	if err != nil {
		return 0, err
	}
	return b.c.Data8(), nil
}

// ReadWord reads the 16-bit receive register.
func (b *ControllerBus) ReadWord() (uint16, error) {
	if b.closed {
		return 0, ErrClosed
	}
	err := b.wait()
	if err != nil {
		return 0, err
	}
	return b.c.Data16(), nil
}

func (b *ControllerBus) wait() error {
	return WaitIdle(b.c.Busy, b.timeout, b.interval)
}

// ControllerOption specifies a construction option for the ControllerBus.
type ControllerOption func(*ControllerBus)

// WithTimeout sets the longest the bus will wait for the controller to
// become idle.
//
// A zero timeout waits forever.
func WithTimeout(timeout time.Duration) ControllerOption {
	return func(b *ControllerBus) {
		b.timeout = timeout
	}
}

// WithPollInterval sets the period between polls of the busy flag.
//
// The default is to yield between polls rather than sleep.
func WithPollInterval(interval time.Duration) ControllerOption {
	return func(b *ControllerBus) {
		b.interval = interval
	}
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package tinyspi adapts a TinyGo drivers.SPI to a spi.Bus.
//
// The TinyGo SPI interface has no notion of chip select, so the select line is
// driven through a separate output pin, and bus timing is applied through an
// optional configure hook as the machine SPI configuration is board specific.
package tinyspi

import (
	"sync"

	"github.com/warthog618/sensornode/spi"
	"tinygo.org/x/drivers"
)

// Pin is an output pin, such as a TinyGo machine.Pin.
type Pin interface {
	High()
	Low()
}

// Bus is a spi.Bus over a TinyGo SPI peripheral and an active low chip
// select pin.
type Bus struct {
	mu        sync.Mutex
	spi       drivers.SPI
	cs        Pin
	configure func(spi.Config) error
	selected  bool
	closed    bool
	rx        spi.Shifter
}

var _ spi.Bus = (*Bus)(nil)

// New creates a Bus over the SPI peripheral with the chip select on cs.
//
// The chip select is driven inactive.
func New(s drivers.SPI, cs Pin, options ...Option) *Bus {
	b := &Bus{spi: s, cs: cs}
	for _, option := range options {
		option(b)
	}
	cs.High()
	return b
}

// Option modifies the construction of a Bus.
type Option func(*Bus)

// WithConfigure provides the function that applies the bus configuration to
// the underlying peripheral.
//
// Without it Configure only checks the bus is open.
func WithConfigure(f func(spi.Config) error) Option {
	return func(b *Bus) {
		b.configure = f
	}
}

// Close deselects the device and releases the bus.
//
// The underlying peripheral is left configured.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return spi.ErrClosed
	}
	b.closed = true
	if b.selected {
		b.selected = false
		b.cs.High()
	}
	return nil
}

// Configure applies the configuration using the configure hook.
func (b *Bus) Configure(cfg spi.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return spi.ErrClosed
	}
	if b.configure == nil {
		return nil
	}
	return b.configure(cfg)
}

// Select drives the chip select active.
func (b *Bus) Select() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return spi.ErrClosed
	}
	b.rx.Reset()
	b.selected = true
	b.cs.Low()
	return nil
}

// Deselect drives the chip select inactive.
func (b *Bus) Deselect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return spi.ErrClosed
	}
	b.selected = false
	b.cs.High()
	return nil
}

// Transfer exchanges a byte with the device.
func (b *Bus) Transfer(out byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, spi.ErrClosed
	}
	if !b.selected {
		return 0, spi.ErrNotSelected
	}
	in, err := b.spi.Transfer(out)
	if err != nil {
		return 0, err
	}
	b.rx.Shift(in)
	return in, nil
}

// ReadWord returns the last two bytes received.
func (b *Bus) ReadWord() (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, spi.ErrClosed
	}
	return b.rx.Word(), nil
}

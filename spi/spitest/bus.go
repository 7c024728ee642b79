// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package spitest

import (
	"fmt"
	"sync"

	"github.com/warthog618/sensornode/spi"
)

// Op identifies a bus operation.
type Op int

const (
	// OpConfigure is a call to Configure.
	OpConfigure Op = iota
	// OpSelect is a call to Select.
	OpSelect
	// OpDeselect is a call to Deselect.
	OpDeselect
	// OpTransfer is a call to Transfer.
	OpTransfer
	// OpReadWord is a call to ReadWord.
	OpReadWord
	// OpClose is a call to Close.
	OpClose
)

var opNames = []string{"configure", "select", "deselect", "transfer", "readword", "close"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Event records a single operation applied to the Bus.
type Event struct {
	Op Op
	// Out is the byte written by a transfer.
	Out byte
	// In is the byte returned by a transfer, or the low byte of the word
	// returned by ReadWord.
	In byte
}

// Bus is a spi.Bus that records the operations applied to it.
//
// If a Device is attached, transferred bytes are exchanged with it while it
// is selected. Otherwise transfers return the bytes queued in Rx, or zero
// once Rx is exhausted.
type Bus struct {
	mu     sync.Mutex
	Device *Device
	// Rx is the sequence of bytes returned by transfers when no device is
	// attached.
	Rx []byte
	// Errs injects errors returned by the corresponding operation.
	Errs map[Op]error

	cfg      spi.Config
	events   []Event
	selected bool
	closed   bool
	rx       spi.Shifter
}

var _ spi.Bus = (*Bus)(nil)

// NewBus creates a Bus with the device attached.
func NewBus(d *Device) *Bus {
	return &Bus{Device: d}
}

// Events returns the operations applied to the bus.
func (b *Bus) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Ops returns the sequence of operation types applied to the bus.
func (b *Bus) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	oo := make([]Op, len(b.events))
	for i, e := range b.events {
		oo[i] = e.Op
	}
	return oo
}

// Sent returns the bytes written by transfers.
func (b *Bus) Sent() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []byte
	for _, e := range b.events {
		if e.Op == OpTransfer {
			out = append(out, e.Out)
		}
	}
	return out
}

// Config returns the most recently applied configuration.
func (b *Bus) Config() spi.Config {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// Selected returns true if the device is currently selected.
func (b *Bus) Selected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// ClearEvents discards the recorded operations.
func (b *Bus) ClearEvents() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

func (b *Bus) record(e Event) error {
	b.events = append(b.events, e)
	if b.closed && e.Op != OpClose {
		return spi.ErrClosed
	}
	return b.Errs[e.Op]
}

// Configure records the configuration.
func (b *Bus) Configure(cfg spi.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(Event{Op: OpConfigure}); err != nil {
		return err
	}
	b.cfg = cfg
	return nil
}

// Select selects the device.
func (b *Bus) Select() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(Event{Op: OpSelect}); err != nil {
		return err
	}
	b.selected = true
	b.rx.Reset()
	return nil
}

// Deselect deselects the device, resetting any attached Device.
func (b *Bus) Deselect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(Event{Op: OpDeselect}); err != nil {
		return err
	}
	b.selected = false
	if b.Device != nil {
		b.Device.Reset()
	}
	return nil
}

// Transfer exchanges a byte with the device.
func (b *Bus) Transfer(out byte) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var in byte
	switch {
	case b.Device != nil:
		if b.selected {
			in = b.Device.Exchange(out)
		}
	case len(b.Rx) > 0:
		in = b.Rx[0]
		b.Rx = b.Rx[1:]
	}
	if err := b.record(Event{Op: OpTransfer, Out: out, In: in}); err != nil {
		return 0, err
	}
	if !b.selected {
		return 0, spi.ErrNotSelected
	}
	b.rx.Shift(in)
	return in, nil
}

// ReadWord returns the last two bytes received.
func (b *Bus) ReadWord() (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := b.rx.Word()
	if err := b.record(Event{Op: OpReadWord, In: byte(w)}); err != nil {
		return 0, err
	}
	return w, nil
}

// Close closes the bus.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return spi.ErrClosed
	}
	err := b.record(Event{Op: OpClose})
	b.closed = true
	return err
}

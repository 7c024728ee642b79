// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package spitest provides SPI test doubles - buses that record the
// operations applied to them, and a simulated MCP3204 to attach to them.
package spitest

import (
	"sync"
)

// Request is a conversion request decoded by a Device.
type Request struct {
	// SGL is true for a single ended conversion, false for differential.
	SGL bool
	// Sel is the channel selector, D2 D1 D0.
	Sel uint8
}

// Device simulates the serial interface of an MCP3204.
//
// Data is exchanged MSB first. Leading zeros preceding the start bit are
// ignored. Bits the real device leaves floating are returned as ones.
type Device struct {
	mu sync.Mutex
	// Single holds the codes returned for single ended conversions,
	// indexed by the selector.
	Single [4]uint16
	// Diff holds the codes returned for differential conversions,
	// indexed by the selector.
	Diff [4]uint16

	requests []Request
	state    int
	sgl      bool
	sel      uint8
	sample   uint16
	bit      int
}

const (
	stIdle = iota
	stSGL
	stD2
	stD1
	stD0
	stSample
	stNull
	stMSB
	stLSB
	stDone
)

// Reset returns the device to waiting for a start bit, as occurs when the
// device is deselected.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = stIdle
}

// Requests returns the conversion requests decoded by the device.
func (d *Device) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Request(nil), d.requests...)
}

// Exchange clocks a byte into the device, MSB first, and returns the byte
// clocked out.
func (d *Device) Exchange(in byte) byte {
	var out byte
	for i := 7; i >= 0; i-- {
		out = out<<1 | byte(d.Clock(int(in>>uint(i))&0x01))
	}
	return out
}

// Clock performs a single clock cycle, latching bit in and returning the bit
// presented on the data output.
func (d *Device) Clock(in int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case stIdle:
		if in != 0 {
			d.state = stSGL
		}
		return 1
	case stSGL:
		d.sgl = in != 0
		d.sel = 0
		d.state = stD2
		return 1
	case stD2, stD1, stD0:
		d.sel = d.sel<<1 | uint8(in&0x01)
		d.state++
		if d.state == stSample {
			d.latch()
		}
		return 1
	case stSample:
		d.state = stNull
		return 1
	case stNull:
		d.state = stMSB
		d.bit = 11
		return 0
	case stMSB:
		v := int(d.sample>>uint(d.bit)) & 0x01
		d.bit--
		if d.bit < 0 {
			d.state = stLSB
			d.bit = 1
		}
		return v
	case stLSB:
		v := int(d.sample>>uint(d.bit)) & 0x01
		d.bit++
		if d.bit > 11 {
			d.state = stDone
		}
		return v
	}
	return 0
}

func (d *Device) latch() {
	d.requests = append(d.requests, Request{SGL: d.sgl, Sel: d.sel})
	idx := d.sel & 0x03
	if d.sgl {
		d.sample = d.Single[idx] & 0x0fff
	} else {
		d.sample = d.Diff[idx] & 0x0fff
	}
}

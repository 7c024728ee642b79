// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package spitest

import (
	"sync"

	"github.com/warthog618/sensornode/spi"
)

// Controller is a simulated register level SPI controller.
//
// Each transfer keeps the controller busy for BusyPolls polls of the busy
// flag. Setting Stuck keeps it busy forever.
type Controller struct {
	mu     sync.Mutex
	Device *Device
	// BusyPolls is the number of polls a transfer remains busy for.
	BusyPolls int
	// Stuck holds the busy flag set.
	Stuck bool

	cfg        spi.Config
	configured bool
	mask       uint8
	busy       int
	polls      int
	selects    []uint8
	rx         spi.Shifter
}

var _ spi.Controller = (*Controller)(nil)

// NewController creates a Controller with the device attached to slave
// select 0.
func NewController(d *Device) *Controller {
	return &Controller{Device: d}
}

// Configure records the configuration.
func (c *Controller) Configure(cfg spi.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	c.configured = true
	return nil
}

// Config returns the applied configuration and whether one was applied.
func (c *Controller) Config() (spi.Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg, c.configured
}

// SetSelect records the select mask, resetting the device when it is
// deselected.
func (c *Controller) SetSelect(mask uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy > 0 {
		panic("select changed while transfer in progress")
	}
	if c.mask&0x01 != 0 && mask&0x01 == 0 && c.Device != nil {
		c.Device.Reset()
	}
	c.mask = mask
	c.selects = append(c.selects, mask)
}

// Selects returns the history of select masks.
func (c *Controller) Selects() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint8(nil), c.selects...)
}

// Start exchanges b with the device if it is selected.
func (c *Controller) Start(b byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var in byte = 0xff
	if c.mask&0x01 != 0 && c.Device != nil {
		in = c.Device.Exchange(b)
	}
	c.rx.Shift(in)
	c.busy = c.BusyPolls
}

// Busy returns true while the simulated transfer is in progress.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	if c.Stuck {
		return true
	}
	if c.busy > 0 {
		c.busy--
		return true
	}
	return false
}

// Polls returns the number of times the busy flag was polled.
func (c *Controller) Polls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polls
}

// Data8 returns the last byte received.
func (c *Controller) Data8() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return byte(c.rx.Word())
}

// Data16 returns the last two bytes received.
func (c *Controller) Data16() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rx.Word()
}

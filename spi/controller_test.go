// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package spi_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/sensornode/spi"
	"github.com/warthog618/sensornode/spi/spitest"
)

func TestControllerBusConfigure(t *testing.T) {
	c := spitest.NewController(nil)
	b, err := spi.NewControllerBus(c, 0)
	require.Nil(t, err)
	cfg := spi.Config{Mode: spi.Mode3, ClockDivider: 16, LSBFirst: true}
	err = b.Configure(cfg)
	assert.Nil(t, err)
	ccfg, ok := c.Config()
	assert.True(t, ok)
	assert.Equal(t, cfg, ccfg)
}

func TestControllerBusSelect(t *testing.T) {
	patterns := []struct {
		name  string
		slave uint
		mask  uint8
	}{
		{"slave0", 0, 0x01},
		{"slave1", 1, 0x02},
		{"slave2", 2, 0x04},
		{"slave7", 7, 0x80},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			c := spitest.NewController(nil)
			c.BusyPolls = 2
			b, err := spi.NewControllerBus(c, p.slave)
			require.Nil(t, err)
			require.Nil(t, b.Select())
			require.Nil(t, b.Deselect())
			assert.Equal(t, []uint8{p.mask, 0}, c.Selects())
		}
		t.Run(p.name, tf)
	}
}

func TestControllerBusInvalidSlave(t *testing.T) {
	c := spitest.NewController(nil)
	patterns := []uint{8, 9, 64}
	for _, slave := range patterns {
		b, err := spi.NewControllerBus(c, slave)
		assert.Nil(t, b)
		assert.Equal(t, spi.ErrorInvalidSlave(slave), err)
	}
	assert.Empty(t, c.Selects())
}

func TestControllerBusTransfer(t *testing.T) {
	dev := &spitest.Device{Single: [4]uint16{0, 0, 0x9a5}}
	c := spitest.NewController(dev)
	c.BusyPolls = 4
	b, err := spi.NewControllerBus(c, 0)
	require.Nil(t, err)
	_, err = b.Transfer(0x06)
	assert.Equal(t, spi.ErrNotSelected, err)

	require.Nil(t, b.Select())
	polls := c.Polls()
	in, err := b.Transfer(0x06)
	require.Nil(t, err)
	assert.Equal(t, byte(0xff), in)
	// waited out the busy period
	assert.Equal(t, polls+5, c.Polls())
	_, err = b.Transfer(0x80)
	require.Nil(t, err)
	_, err = b.Transfer(0x00)
	require.Nil(t, err)
	w, err := b.ReadWord()
	require.Nil(t, err)
	assert.Equal(t, uint16(0x9a5), w&0x0fff)
	require.Nil(t, b.Deselect())
}

func TestControllerBusTimeout(t *testing.T) {
	c := spitest.NewController(nil)
	b, err := spi.NewControllerBus(c, 0,
		spi.WithTimeout(2*time.Millisecond),
		spi.WithPollInterval(100*time.Microsecond))
	require.Nil(t, err)
	require.Nil(t, b.Select())
	c.Stuck = true
	_, err = b.Transfer(0x01)
	assert.Equal(t, spi.ErrBusTimeout, err)
	err = b.Deselect()
	assert.Equal(t, spi.ErrBusTimeout, err)
	// select line not changed while busy
	assert.Equal(t, []uint8{0x01}, c.Selects())
	_, err = b.ReadWord()
	assert.Equal(t, spi.ErrBusTimeout, err)
}

func TestControllerBusClose(t *testing.T) {
	c := spitest.NewController(nil)
	b, err := spi.NewControllerBus(c, 0)
	require.Nil(t, err)
	require.Nil(t, b.Select())
	err = b.Close()
	assert.Nil(t, err)
	assert.Equal(t, []uint8{0x01, 0x00}, c.Selects())
	err = b.Close()
	assert.Equal(t, spi.ErrClosed, err)
	err = b.Select()
	assert.Equal(t, spi.ErrClosed, err)
	_, err = b.Transfer(0)
	assert.Equal(t, spi.ErrClosed, err)
	_, err = b.ReadWord()
	assert.Equal(t, spi.ErrClosed, err)
	err = b.Configure(spi.Config{})
	assert.Equal(t, spi.ErrClosed, err)
}

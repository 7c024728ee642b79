// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux && !(mips || mipsle || mips64 || mips64le || ppc64 || ppc64le || sparc || sparc64)
// +build linux,!mips,!mipsle,!mips64,!mips64le,!ppc64,!ppc64le,!sparc,!sparc64

package spidev

import (
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/sensornode/spi"
	"golang.org/x/sys/unix"
)

func TestIoctls(t *testing.T) {
	patterns := []struct {
		name  string
		ioctl ioctl
		value uintptr
	}{
		{"wr_mode", spiIOCWrMode, 0x40016b01},
		{"wr_lsb_first", spiIOCWrLSBFirst, 0x40016b02},
		{"wr_bits_per_word", spiIOCWrBitsPerWord, 0x40016b03},
		{"wr_max_speed_hz", spiIOCWrMaxSpeedHz, 0x40046b04},
		{"message1", spiIOCMessage(1), 0x40206b00},
		{"message2", spiIOCMessage(2), 0x40406b00},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			assert.Equal(t, p.value, uintptr(p.ioctl))
		}
		t.Run(p.name, tf)
	}
}

func TestTransferSize(t *testing.T) {
	assert.Equal(t, uintptr(32), unsafe.Sizeof(iocTransfer{}))
}

func TestOpen(t *testing.T) {
	_, err := Open("/dev/nonexistent-spidev")
	assert.Equal(t, unix.ENOENT, err)

	// not a spidev, so ioctls are rejected
	d, err := Open("/dev/null")
	require.Nil(t, err)
	assert.Equal(t, "/dev/null", d.Path())
	err = d.Configure(spi.Config{Mode: spi.Mode0, ClockDivider: 16})
	assert.Equal(t, unix.ENOTTY, err)
	_, err = d.Transfer(0x06)
	assert.Equal(t, spi.ErrNotSelected, err)
	require.Nil(t, d.Select())
	_, err = d.Transfer(0x06)
	assert.Equal(t, unix.ENOTTY, err)
	w, err := d.ReadWord()
	assert.Nil(t, err)
	assert.Zero(t, w)
	err = d.Deselect()
	assert.Equal(t, unix.ENOTTY, err)
	// already deselected
	err = d.Deselect()
	assert.Nil(t, err)

	err = d.Close()
	assert.Nil(t, err)
	err = d.Close()
	assert.Equal(t, spi.ErrClosed, err)
	err = d.Select()
	assert.Equal(t, spi.ErrClosed, err)
	_, err = d.Transfer(0)
	assert.Equal(t, spi.ErrClosed, err)
	_, err = d.ReadWord()
	assert.Equal(t, spi.ErrClosed, err)
	err = d.Configure(spi.Config{})
	assert.Equal(t, spi.ErrClosed, err)
}

func TestDevices(t *testing.T) {
	for _, p := range Devices() {
		assert.Contains(t, p, "/dev/spidev")
	}
}

func TestMatcher(t *testing.T) {
	m := matcher("/dev/spidev0.1")
	require.NotNil(t, m.Action)
	assert.Equal(t, "add", *m.Action)
	assert.Equal(t, "spidev", m.Env["SUBSYSTEM"])
	assert.Equal(t, `^/dev/spidev0\.1$`, m.Env["DEVNAME"])
}

func TestWaitExisting(t *testing.T) {
	// existing nodes return immediately without monitoring udev
	err := Wait("/dev/null", time.Millisecond)
	assert.Nil(t, err)
}

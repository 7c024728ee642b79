// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// Package spidev provides a spi.Bus using the Linux spidev driver.
//
// Each byte is exchanged in its own SPI message, with the chip select held
// active between messages using cs_change, so the device remains selected from
// Select through to Deselect. Some SPI controllers treat cs_change as a hint,
// so the device should be the only one on its chip select.
package spidev

import (
	"path/filepath"
	"sort"
	"sync"
	"unsafe"

	"github.com/warthog618/sensornode/spi"
	"golang.org/x/sys/unix"
)

// spi mode flags, from linux/spi/spi.h
const (
	spiCPHA = 0x01
	spiCPOL = 0x02
)

// Device is an SPI device accessed through a spidev device node.
type Device struct {
	mu       sync.Mutex
	path     string
	fd       int
	speedHz  uint32
	selected bool
	rx       spi.Shifter
	// transfer buffers, kept in the heap allocated Device so their
	// addresses remain valid for the duration of the ioctl.
	txb [1]byte
	rxb [1]byte
}

var _ spi.Bus = (*Device)(nil)

// Open opens the spidev device node, e.g. /dev/spidev0.0.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}
	return &Device{path: path, fd: fd}, nil
}

// Devices returns the paths of the spidev device nodes on the system.
func Devices() []string {
	pp, _ := filepath.Glob("/dev/spidev*")
	sort.Strings(pp)
	return pp
}

// Path returns the path of the device node.
func (d *Device) Path() string {
	return d.path
}

// Close closes the device node.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return spi.ErrClosed
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

// Configure sets the mode, bit order, word size and clock rate of the device.
func (d *Device) Configure(cfg spi.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return spi.ErrClosed
	}
	var mode uint8
	if cfg.Mode.CPHA() != 0 {
		mode |= spiCPHA
	}
	if cfg.Mode.CPOL() != 0 {
		mode |= spiCPOL
	}
	err := d.ioctl(spiIOCWrMode, unsafe.Pointer(&mode))
	if err != nil {
		return err
	}
	var lsb uint8
	if cfg.LSBFirst {
		lsb = 1
	}
	err = d.ioctl(spiIOCWrLSBFirst, unsafe.Pointer(&lsb))
	if err != nil {
		return err
	}
	bpw := uint8(8)
	err = d.ioctl(spiIOCWrBitsPerWord, unsafe.Pointer(&bpw))
	if err != nil {
		return err
	}
	speed := cfg.ClockHz()
	err = d.ioctl(spiIOCWrMaxSpeedHz, unsafe.Pointer(&speed))
	if err != nil {
		return err
	}
	d.speedHz = speed
	return nil
}

// Select marks the device as selected.
//
// The chip select is asserted by the kernel when the first byte is
// transferred.
func (d *Device) Select() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return spi.ErrClosed
	}
	d.selected = true
	d.rx.Reset()
	return nil
}

// Deselect releases the chip select.
func (d *Device) Deselect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return spi.ErrClosed
	}
	if !d.selected {
		return nil
	}
	d.selected = false
	// an empty transfer without cs_change drops the chip select
	xfer := iocTransfer{speedHz: d.speedHz, bitsPerWord: 8}
	return d.ioctl(spiIOCMessage(1), unsafe.Pointer(&xfer))
}

// Transfer exchanges a byte with the device, leaving it selected.
func (d *Device) Transfer(out byte) (byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return 0, spi.ErrClosed
	}
	if !d.selected {
		return 0, spi.ErrNotSelected
	}
	d.txb[0] = out
	xfer := iocTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&d.txb[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&d.rxb[0]))),
		len:         1,
		speedHz:     d.speedHz,
		bitsPerWord: 8,
		csChange:    1,
	}
	err := d.ioctl(spiIOCMessage(1), unsafe.Pointer(&xfer))
	if err != nil {
		return 0, err
	}
	rx := d.rxb[0]
	d.rx.Shift(rx)
	return rx, nil
}

// ReadWord returns the last two bytes received.
func (d *Device) ReadWord() (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return 0, spi.ErrClosed
	}
	return d.rx.Word(), nil
}

func (d *Device) ioctl(req ioctl, arg unsafe.Pointer) error {
	return ioctlPtr(uintptr(d.fd), req, arg)
}

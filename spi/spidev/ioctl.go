// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package spidev

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl constants defined in ioctl_XXX

type ioctl uintptr

func iow(t, nr, size uintptr) ioctl {
	return ioctl((iocWrite << iocDirShift) |
		(size << iocSizeShift) |
		(t << iocTypeShift) |
		(nr << iocNRShift))
}

// spidev ioctls, from linux/spi/spidev.h
const spiIOCMagic = 'k'

var (
	spiIOCWrMode        = iow(spiIOCMagic, 1, 1)
	spiIOCWrLSBFirst    = iow(spiIOCMagic, 2, 1)
	spiIOCWrBitsPerWord = iow(spiIOCMagic, 3, 1)
	spiIOCWrMaxSpeedHz  = iow(spiIOCMagic, 4, 4)
)

// spiIOCMessage returns the ioctl for a message of n transfers.
func spiIOCMessage(n int) ioctl {
	return iow(spiIOCMagic, 0, uintptr(n)*unsafe.Sizeof(iocTransfer{}))
}

// iocTransfer is struct spi_ioc_transfer.
type iocTransfer struct {
	txBuf          uint64
	rxBuf          uint64
	len            uint32
	speedHz        uint32
	delayUsecs     uint16
	bitsPerWord    uint8
	csChange       uint8
	txNbits        uint8
	rxNbits        uint8
	wordDelayUsecs uint8
	pad            uint8
}

func ioctlPtr(fd uintptr, req ioctl, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

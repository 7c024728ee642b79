// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

//go:build linux && !(mips || mipsle || mips64 || mips64le || ppc64 || ppc64le || sparc || sparc64)
// +build linux,!mips,!mipsle,!mips64,!mips64le,!ppc64,!ppc64le,!sparc,!sparc64

package spidev

// ioctl constants
const (
	iocNRBits    = 8
	iocTypeBits  = 8
	iocSizeBits  = 14
	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
	iocWrite     = 1
)

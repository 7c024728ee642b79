// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package spi

import (
	"github.com/warthog618/gpiod"
)

// New creates a SPI from lines requested from the chip.
//
// The clock, select and MOSI lines are requested as outputs and the MISO line
// as an input. The select line is held high, deselecting the device, until
// needed.
func New(c *gpiod.Chip, sclk, ssz, mosi, miso int, options ...Option) (*SPI, error) {
	if miso == mosi {
		return nil, ErrSharedDataLine
	}
	var err error
	ll := make([]*gpiod.Line, 0, 4)
	defer func() {
		if err != nil {
			for _, l := range ll {
				l.Close()
			}
		}
	}()
	request := func(offset int, option gpiod.LineReqOption) (l *gpiod.Line) {
		if err != nil {
			return nil
		}
		l, err = c.RequestLine(offset, option)
		if err == nil {
			ll = append(ll, l)
		}
		return l
	}
	// hold SPI reset until needed...
	lssz := request(ssz, gpiod.AsOutput(1))
	lsclk := request(sclk, gpiod.AsOutput(0))
	lmiso := request(miso, gpiod.AsInput)
	lmosi := request(mosi, gpiod.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return NewFromLines(lsclk, lssz, lmosi, lmiso, options...), nil
}

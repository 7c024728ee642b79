// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spi

import (
	"sync"
	"time"
)

// Line is a single GPIO line used by the bit bashed SPI.
//
// *gpiod.Line satisfies this interface.
type Line interface {
	SetValue(value int) error
	Value() (int, error)
	Close() error
}

// SPI represents a device connected an SPI bus using 4 GPIO lines.
//
// This is the basis for bit bashed SPI interfaces using GPIO pins. It is not
// related to the SPI device drivers provided by Linux.
type SPI struct {
	// time between clock edges (i.e. half the cycle time)
	Tclk time.Duration
	Sclk Line
	Ssz  Line
	Mosi Line
	Miso Line

	mu       sync.Mutex
	cpol     int
	cpha     int
	lsbFirst bool
	selected bool
	closed   bool
	rx       Shifter
}

// NewFromLines creates a SPI from lines that have already been requested.
//
// The SPI takes ownership of the lines and closes them when closed.
func NewFromLines(sclk, ssz, mosi, miso Line, options ...Option) *SPI {
	s := SPI{Sclk: sclk, Ssz: ssz, Mosi: mosi, Miso: miso}
	for _, option := range options {
		option(&s)
	}
	if s.Tclk == 0 {
		// default to 1MHz full cycle.
		s.Tclk = 500 * time.Nanosecond
	}
	return &s
}

// Close releases allocated resources.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	for _, l := range []Line{s.Sclk, s.Miso, s.Mosi, s.Ssz} {
		if l != nil {
			l.Close()
		}
	}
	return nil
}

// Configure sets the clock mode, rate and bit order.
//
// The clock line is driven to its idle level.
func (s *SPI) Configure(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.cpol = cfg.Mode.CPOL()
	s.cpha = cfg.Mode.CPHA()
	s.lsbFirst = cfg.LSBFirst
	if cfg.ClockDivider != 0 {
		s.Tclk = time.Second / time.Duration(2*cfg.ClockHz())
	}
	return s.Sclk.SetValue(s.cpol)
}

// Select pulls the select line low.
func (s *SPI) Select() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	err := s.Sclk.SetValue(s.cpol)
	if err != nil {
		return err
	}
	time.Sleep(s.Tclk)
	err = s.Ssz.SetValue(0)
	if err != nil {
		return err
	}
	s.selected = true
	s.rx.Reset()
	return nil
}

// Deselect returns the select line high.
func (s *SPI) Deselect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	time.Sleep(s.Tclk)
	s.selected = false
	return s.Ssz.SetValue(1)
}

// Transfer clocks a byte out on Mosi while clocking a byte in from Miso.
func (s *SPI) Transfer(out byte) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if !s.selected {
		return 0, ErrNotSelected
	}
	var in byte
	for i := 0; i < 8; i++ {
		shift := uint(7 - i)
		if s.lsbFirst {
			shift = uint(i)
		}
		v, err := s.clockBit(int(out>>shift) & 0x01)
		if err != nil {
			return 0, err
		}
		if v != 0 {
			in |= 1 << shift
		}
	}
	s.rx.Shift(in)
	return in, nil
}

// ReadWord returns the last two bytes clocked in.
func (s *SPI) ReadWord() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.rx.Word(), nil
}

// clockBit performs one clock cycle, clocking out v on Mosi and returning
// the value sampled from Miso.
//
// Starts and ends with the clock at its idle level.
func (s *SPI) clockBit(v int) (int, error) {
	idle := s.cpol
	active := s.cpol ^ 1
	if s.cpha == 0 {
		// data is set up before the leading edge and sampled on it.
		err := s.Mosi.SetValue(v)
		if err != nil {
			return 0, err
		}
		time.Sleep(s.Tclk)
		err = s.Sclk.SetValue(active)
		if err != nil {
			return 0, err
		}
		in, err := s.Miso.Value()
		if err != nil {
			return 0, err
		}
		time.Sleep(s.Tclk)
		return in, s.Sclk.SetValue(idle)
	}
	// data changes on the leading edge and is sampled on the trailing edge.
	err := s.Sclk.SetValue(active)
	if err != nil {
		return 0, err
	}
	err = s.Mosi.SetValue(v)
	if err != nil {
		return 0, err
	}
	time.Sleep(s.Tclk)
	err = s.Sclk.SetValue(idle)
	if err != nil {
		return 0, err
	}
	in, err := s.Miso.Value()
	if err != nil {
		return 0, err
	}
	time.Sleep(s.Tclk)
	return in, nil
}

// Option specifies a construction option for the SPI.
type Option func(*SPI)

// WithTclk sets the clock period for the SPI.
//
// Note that this is the half-cycle period. It is overridden by any clock
// divider subsequently passed to Configure.
func WithTclk(tclk time.Duration) Option {
	return func(s *SPI) {
		s.Tclk = tclk
	}
}

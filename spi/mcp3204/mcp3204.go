// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package mcp3204 provides a device driver for the MCP3204 4 channel 12-bit
// SPI ADC.
package mcp3204

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/warthog618/sensornode/spi"
)

// InputMode selects between single ended and differential conversions.
type InputMode int

const (
	// SingleEnded measures a channel relative to ground.
	SingleEnded InputMode = iota
	// Differential measures the difference between a pair of channels.
	Differential
)

func (m InputMode) String() string {
	switch m {
	case SingleEnded:
		return "single-ended"
	case Differential:
		return "differential"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Channel identifies an input, or an input pair, to convert.
type Channel int

const (
	// CH0 is the single ended channel 0.
	CH0 Channel = iota
	// CH1 is the single ended channel 1.
	CH1
	// CH2 is the single ended channel 2.
	CH2
	// CH3 is the single ended channel 3.
	CH3
	// CH01 is the differential pair CH0+ CH1-.
	CH01
	// CH10 is the differential pair CH0- CH1+.
	CH10
	// CH23 is the differential pair CH2+ CH3-.
	CH23
	// CH32 is the differential pair CH2- CH3+.
	CH32
)

var channelNames = []string{"ch0", "ch1", "ch2", "ch3", "ch01", "ch10", "ch23", "ch32"}

func (c Channel) String() string {
	if c >= CH0 && int(c) < len(channelNames) {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Mode returns the input mode the channel is converted with.
func (c Channel) Mode() InputMode {
	if c >= CH01 {
		return Differential
	}
	return SingleEnded
}

// selector returns the D1 D0 selector bits for the channel.
func (c Channel) selector() byte {
	return byte(c) & 0x03
}

// ParseChannel converts a channel name, such as "ch0" or "CH23", to a
// Channel.
func ParseChannel(s string) (Channel, error) {
	name := strings.ToLower(s)
	for i, n := range channelNames {
		if n == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel '%s'", s)
}

const (
	// FullScale is the largest code the ADC returns.
	FullScale = 4095

	// Resolution is the number of distinct codes.
	Resolution = 4096

	// DefaultBusClock is the target SPI clock rate.
	DefaultBusClock = 1000000
)

// command bits
const (
	startBit   = 0x04
	singleBit  = 0x02
	selShift   = 6
	resultMask = 0x0fff
)

// Command returns the 3 byte command that requests a conversion of the
// channel in the given mode.
//
// Byte 0 carries the start bit and the SGL/DIFF bit, byte 1 the channel
// selector in its upper bits, and byte 2 is filler to clock out the result.
func Command(mode InputMode, ch Channel) ([3]byte, error) {
	var tx [3]byte
	if ch < CH0 || ch > CH32 || ch.Mode() != mode {
		return tx, ErrorInvalidChannelForMode{mode, ch}
	}
	tx[0] = startBit
	if mode == SingleEnded {
		tx[0] |= singleBit
	}
	tx[1] = ch.selector() << selShift
	return tx, nil
}

// Voltage converts a code to the voltage it represents given the reference
// voltage.
func Voltage(code uint16, vref float64) float64 {
	return float64(code) * vref / Resolution
}

// MCP3204 reads ADC values from a connected Microchip MCP3204.
type MCP3204 struct {
	mu    sync.Mutex
	bus   spi.Bus
	vref  float64
	value uint16
}

// New creates a MCP3204 on the bus.
//
// The bus is configured for the mode, which must be Mode0 or Mode3, and a
// clock rate of no more than 1MHz. The reference voltage is the voltage
// applied to the VREF pin, and must be positive.
// The MCP3204 takes ownership of the bus and closes it when closed.
func New(bus spi.Bus, mode spi.Mode, vref float64, options ...Option) (*MCP3204, error) {
	if mode != spi.Mode0 && mode != spi.Mode3 {
		return nil, ErrInvalidMode
	}
	if !(vref > 0) || math.IsInf(vref, 1) {
		return nil, ErrInvalidReference
	}
	cfg := config{busHz: DefaultBusClock}
	for _, option := range options {
		option(&cfg)
	}
	err := bus.Configure(spi.Config{
		Mode:         mode,
		ClockDivider: spi.Divider(spi.PeripheralClockHz, cfg.busHz),
	})
	if err != nil {
		return nil, err
	}
	return &MCP3204{bus: bus, vref: vref}, nil
}

// Close releases all resources allocated to the ADC.
func (adc *MCP3204) Close() error {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.bus == nil {
		return ErrClosed
	}
	err := adc.bus.Close()
	adc.bus = nil
	return err
}

// Convert performs a conversion of the channel in the given mode and returns
// the result.
//
// The result is also retained and available from Value and Voltage until
// the next conversion.
func (adc *MCP3204) Convert(mode InputMode, ch Channel) (uint16, error) {
	tx, err := Command(mode, ch)
	if err != nil {
		return 0, err
	}
	adc.mu.Lock()
	defer adc.mu.Unlock()
	if adc.bus == nil {
		return 0, ErrClosed
	}
	d, err := adc.transact(tx)
	if err != nil {
		return 0, err
	}
	adc.value = d
	return d, nil
}

// Read performs a conversion of the channel, in the mode implied by the
// channel.
func (adc *MCP3204) Read(ch Channel) (uint16, error) {
	return adc.Convert(ch.Mode(), ch)
}

// transact exchanges the command with the device and returns the result.
//
// The device is deselected even if the exchange fails part way.
func (adc *MCP3204) transact(tx [3]byte) (d uint16, err error) {
	s := adc.bus
	err = s.Select()
	if err != nil {
		return 0, err
	}
	defer func() {
		derr := s.Deselect()
		if err == nil {
			err = derr
		}
	}()
	for _, b := range tx {
		// only the final two bytes carry the result, and they are
		// retrieved by the ReadWord.
		_, err = s.Transfer(b)
		if err != nil {
			return 0, err
		}
	}
	w, err := s.ReadWord()
	if err != nil {
		return 0, err
	}
	return w & resultMask, nil
}

// Value returns the result of the most recent conversion.
func (adc *MCP3204) Value() uint16 {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	return adc.value
}

// Voltage returns the result of the most recent conversion scaled to volts.
func (adc *MCP3204) Voltage() float64 {
	adc.mu.Lock()
	defer adc.mu.Unlock()
	return Voltage(adc.value, adc.vref)
}

// Reference returns the reference voltage.
func (adc *MCP3204) Reference() float64 {
	return adc.vref
}

var (
	// ErrClosed indicates the ADC is closed.
	ErrClosed = errors.New("closed")

	// ErrInvalidMode indicates the SPI mode is not supported by the ADC.
	ErrInvalidMode = errors.New("SPI mode must be 0 or 3")

	// ErrInvalidReference indicates the reference voltage is not positive.
	ErrInvalidReference = errors.New("reference voltage must be positive")
)

// ErrorInvalidChannelForMode indicates the channel cannot be converted in the
// requested mode.
type ErrorInvalidChannelForMode struct {
	Mode    InputMode
	Channel Channel
}

func (e ErrorInvalidChannelForMode) Error() string {
	return fmt.Sprintf("channel %s invalid for %s mode", e.Channel, e.Mode)
}

type config struct {
	busHz uint32
}

// Option specifies a construction option for the ADC.
type Option func(*config)

// WithBusClock sets the target SPI clock rate.
//
// The actual rate is the fastest the peripheral clock divider allows that
// does not exceed this rate.
func WithBusClock(hz uint32) Option {
	return func(c *config) {
		c.busHz = hz
	}
}

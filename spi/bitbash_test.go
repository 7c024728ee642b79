// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package spi_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/sensornode/spi"
	"github.com/warthog618/sensornode/spi/mcp3204"
	"github.com/warthog618/sensornode/spi/spitest"
)

// bench simulates the four wires between the SPI and a device.
//
// The device is clocked on the edge the SPI samples Miso on. With no device
// the bench loops Mosi back to Miso.
type bench struct {
	mu     sync.Mutex
	dev    *spitest.Device
	cpol   int
	cpha   int
	sclk   int
	ssz    int
	mosi   int
	miso   int
	bits   []int
	closed map[string]bool
	err    map[string]error
}

func newBench(dev *spitest.Device, mode spi.Mode) *bench {
	return &bench{
		dev:    dev,
		cpol:   mode.CPOL(),
		cpha:   mode.CPHA(),
		ssz:    1,
		closed: map[string]bool{},
		err:    map[string]error{},
	}
}

func (b *bench) spi(options ...spi.Option) *spi.SPI {
	return spi.NewFromLines(
		&line{b, "sclk"},
		&line{b, "ssz"},
		&line{b, "mosi"},
		&line{b, "miso"},
		options...)
}

func (b *bench) set(name string, v int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.err[name]; err != nil {
		return err
	}
	switch name {
	case "sclk":
		if v == b.sclk {
			return nil
		}
		leading := v != b.cpol
		if leading == (b.cpha == 0) && b.ssz == 0 {
			b.bits = append(b.bits, b.mosi)
			if b.dev != nil {
				b.miso = b.dev.Clock(b.mosi)
			} else {
				b.miso = b.mosi
			}
		}
		b.sclk = v
	case "ssz":
		if v == 1 && b.ssz == 0 && b.dev != nil {
			b.dev.Reset()
		}
		b.ssz = v
	case "mosi":
		b.mosi = v
	}
	return nil
}

func (b *bench) value(name string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.err[name]; err != nil {
		return 0, err
	}
	switch name {
	case "sclk":
		return b.sclk, nil
	case "ssz":
		return b.ssz, nil
	case "mosi":
		return b.mosi, nil
	}
	return b.miso, nil
}

type line struct {
	b    *bench
	name string
}

func (l *line) SetValue(v int) error {
	return l.b.set(l.name, v)
}

func (l *line) Value() (int, error) {
	return l.b.value(l.name)
}

func (l *line) Close() error {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	l.b.closed[l.name] = true
	return nil
}

func TestSPIConfigure(t *testing.T) {
	patterns := []struct {
		name string
		mode spi.Mode
	}{
		{"mode0", spi.Mode0},
		{"mode1", spi.Mode1},
		{"mode2", spi.Mode2},
		{"mode3", spi.Mode3},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			b := newBench(nil, p.mode)
			s := b.spi()
			defer s.Close()
			err := s.Configure(spi.Config{Mode: p.mode, ClockDivider: 16})
			require.Nil(t, err)
			// clock idles at CPOL
			assert.Equal(t, p.mode.CPOL(), b.sclk)
			assert.Equal(t, 500, int(s.Tclk.Nanoseconds()))
		}
		t.Run(p.name, tf)
	}
}

func TestSPITransfer(t *testing.T) {
	patterns := []struct {
		name     string
		mode     spi.Mode
		lsbFirst bool
		out      byte
		bits     []int
	}{
		{"mode0", spi.Mode0, false, 0x01, []int{0, 0, 0, 0, 0, 0, 0, 1}},
		{"mode1", spi.Mode1, false, 0x80, []int{1, 0, 0, 0, 0, 0, 0, 0}},
		{"mode2", spi.Mode2, false, 0xa5, []int{1, 0, 1, 0, 0, 1, 0, 1}},
		{"mode3", spi.Mode3, false, 0x0f, []int{0, 0, 0, 0, 1, 1, 1, 1}},
		{"lsb first", spi.Mode0, true, 0x01, []int{1, 0, 0, 0, 0, 0, 0, 0}},
		{"lsb first mode3", spi.Mode3, true, 0x0e, []int{0, 1, 1, 1, 0, 0, 0, 0}},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			b := newBench(nil, p.mode)
			s := b.spi()
			defer s.Close()
			err := s.Configure(spi.Config{Mode: p.mode, ClockDivider: 1, LSBFirst: p.lsbFirst})
			require.Nil(t, err)
			require.Nil(t, s.Select())
			in, err := s.Transfer(p.out)
			require.Nil(t, err)
			// loopback
			assert.Equal(t, p.out, in)
			assert.Equal(t, p.bits, b.bits)
			in, err = s.Transfer(0x5a)
			require.Nil(t, err)
			assert.Equal(t, byte(0x5a), in)
			w, err := s.ReadWord()
			assert.Nil(t, err)
			assert.Equal(t, uint16(p.out)<<8|0x5a, w)
			require.Nil(t, s.Deselect())
			// clock returned to idle
			assert.Equal(t, p.mode.CPOL(), b.sclk)
			assert.Equal(t, 1, b.ssz)
		}
		t.Run(p.name, tf)
	}
}

func TestSPINotSelected(t *testing.T) {
	b := newBench(nil, spi.Mode0)
	s := b.spi()
	defer s.Close()
	_, err := s.Transfer(0x01)
	assert.Equal(t, spi.ErrNotSelected, err)
	assert.Empty(t, b.bits)
}

func TestSPILineError(t *testing.T) {
	b := newBench(nil, spi.Mode0)
	s := b.spi()
	defer s.Close()
	lerr := errors.New("line failed")
	b.err["ssz"] = lerr
	err := s.Select()
	assert.Equal(t, lerr, err)
	b.err["ssz"] = nil
	require.Nil(t, s.Select())
	b.err["miso"] = lerr
	_, err = s.Transfer(0x01)
	assert.Equal(t, lerr, err)
}

func TestSPIClose(t *testing.T) {
	b := newBench(nil, spi.Mode0)
	s := b.spi()
	err := s.Close()
	assert.Nil(t, err)
	assert.Equal(t, map[string]bool{"sclk": true, "ssz": true, "mosi": true, "miso": true}, b.closed)
	err = s.Close()
	assert.Equal(t, spi.ErrClosed, err)
	err = s.Select()
	assert.Equal(t, spi.ErrClosed, err)
	_, err = s.Transfer(0)
	assert.Equal(t, spi.ErrClosed, err)
	_, err = s.ReadWord()
	assert.Equal(t, spi.ErrClosed, err)
	err = s.Configure(spi.Config{})
	assert.Equal(t, spi.ErrClosed, err)
}

func TestSPIMCP3204(t *testing.T) {
	patterns := []struct {
		name string
		mode spi.Mode
	}{
		{"mode0", spi.Mode0},
		{"mode3", spi.Mode3},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			dev := &spitest.Device{
				Single: [4]uint16{0x001, 0x800, 0x7ff, 0xfff},
				Diff:   [4]uint16{0x0f0, 0x00f, 0xf00, 0x5a5},
			}
			b := newBench(dev, p.mode)
			adc, err := mcp3204.New(b.spi(), p.mode, 3.3)
			require.Nil(t, err)
			defer adc.Close()
			for ch := mcp3204.CH0; ch <= mcp3204.CH32; ch++ {
				v, err := adc.Read(ch)
				assert.Nil(t, err)
				if ch.Mode() == mcp3204.SingleEnded {
					assert.Equal(t, dev.Single[ch], v, ch.String())
				} else {
					assert.Equal(t, dev.Diff[ch-mcp3204.CH01], v, ch.String())
				}
			}
			assert.Len(t, dev.Requests(), 8)
			// 24 clocks per conversion
			assert.Len(t, b.bits, 8*24)
		}
		t.Run(p.name, tf)
	}
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strings"

	"github.com/warthog618/config"
	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
	"github.com/warthog618/sensornode/spi"
	"github.com/warthog618/sensornode/spi/mcp3204"
	"github.com/warthog618/sensornode/spi/spidev"
)

// openADC opens the configured bus and initialises the ADC on it.
func openADC(cfg *config.Config) (*mcp3204.MCP3204, error) {
	mode := cfg.MustGet("mode").Int()
	if mode < int(spi.Mode0) || mode > int(spi.Mode3) {
		return nil, fmt.Errorf("invalid SPI mode %d", mode)
	}
	bus, err := openBus(cfg)
	if err != nil {
		return nil, err
	}
	adc, err := mcp3204.New(
		bus,
		spi.Mode(mode),
		cfg.MustGet("vref").Float(),
		mcp3204.WithBusClock(uint32(cfg.MustGet("clock").Int())))
	if err != nil {
		bus.Close()
		return nil, err
	}
	return adc, nil
}

func openBus(cfg *config.Config) (spi.Bus, error) {
	switch kind := strings.ToLower(cfg.MustGet("bus").String()); kind {
	case "spidev":
		path := cfg.MustGet("spidev").String()
		if wait := cfg.MustGet("wait").Duration(); wait > 0 {
			if err := spidev.Wait(path, wait); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		return spidev.Open(path)
	case "gpio":
		return openGPIOBus(cfg)
	default:
		return nil, fmt.Errorf("unknown bus '%s'", kind)
	}
}

func openGPIOBus(cfg *config.Config) (spi.Bus, error) {
	pins := map[string]int{}
	for _, name := range []string{"clk", "csz", "di", "do"} {
		s := cfg.MustGet(name).String()
		p, err := rpi.Pin(s)
		if err != nil {
			return nil, fmt.Errorf("%s pin '%s': %w", name, s, err)
		}
		pins[name] = p
	}
	c, err := gpiod.NewChip(cfg.MustGet("gpiochip").String(), gpiod.WithConsumer("mcp3204ctl"))
	if err != nil {
		return nil, err
	}
	// requested lines remain valid after the chip is closed
	defer c.Close()
	return spi.New(c, pins["clk"], pins["csz"], pins["di"], pins["do"])
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// An example of reading values from an MCP3204 using the bit-bashed SPI driver.
package main

import (
	"fmt"
	"os"

	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/pflag"
	"github.com/warthog618/gpiod"
	"github.com/warthog618/gpiod/device/rpi"
	"github.com/warthog618/sensornode/spi"
	"github.com/warthog618/sensornode/spi/mcp3204"
)

// This example reads all channels, single ended and differential, from an
// MCP3204 connected to the RPI by four data lines - CSZ, CLK, DI, and DO.
// The default pin assignments are defined in loadConfig, but can be altered
// via configuration (env, flag or config file).
// All pins other than DO are outputs so do not run this example on a board
// where those pins serve other purposes.
func main() {
	cfg := loadConfig()
	mode := cfg.MustGet("mode").Int()
	if mode < int(spi.Mode0) || mode > int(spi.Mode3) {
		fmt.Fprintf(os.Stderr, "mcp3204: invalid SPI mode %d\n", mode)
		os.Exit(1)
	}
	c, err := gpiod.NewChip(cfg.MustGet("gpiochip").String(), gpiod.WithConsumer("mcp3204"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp3204: %s\n", err)
		os.Exit(1)
	}
	bus, err := spi.New(
		c,
		cfg.MustGet("clk").Int(),
		cfg.MustGet("csz").Int(),
		cfg.MustGet("di").Int(),
		cfg.MustGet("do").Int())
	c.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcp3204: %s\n", err)
		os.Exit(1)
	}
	adc, err := mcp3204.New(
		bus,
		spi.Mode(mode),
		cfg.MustGet("vref").Float(),
		mcp3204.WithBusClock(uint32(cfg.MustGet("clock").Int())))
	if err != nil {
		bus.Close()
		fmt.Fprintf(os.Stderr, "mcp3204: %s\n", err)
		os.Exit(1)
	}
	defer adc.Close()
	for ch := mcp3204.CH0; ch <= mcp3204.CH32; ch++ {
		d, err := adc.Read(ch)
		if err != nil {
			fmt.Printf("error reading %s: %s\n", ch, err)
			continue
		}
		fmt.Printf("%s=0x%04x %.4fV\n", ch, d, adc.Voltage())
	}
}

func loadConfig() *config.Config {
	defaultConfig := map[string]interface{}{
		"gpiochip": "gpiochip0",
		"mode":     0,
		"vref":     3.3,
		"clock":    500000,
		"csz":      rpi.J8p29,
		"clk":      rpi.J8p31,
		"do":       rpi.J8p33,
		"di":       rpi.J8p35,
	}
	def := dict.New(dict.WithMap(defaultConfig))
	flags := []pflag.Flag{
		{Short: 'c', Name: "config-file"},
	}
	cfg := config.New(
		pflag.New(pflag.WithFlags(flags)),
		env.New(env.WithEnvPrefix("MCP3204_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "mcp3204.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust())
	return cfg
}

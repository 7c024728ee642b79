// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// A utility to read an MCP3204 ADC.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var rootCmd = &cobra.Command{
	Use:   "mcp3204ctl",
	Short: "mcp3204ctl is a utility to read an MCP3204 ADC",
	Long: "mcp3204ctl is a utility to read an MCP3204 ADC attached via Linux spidev " +
		"or bit bashed over GPIO lines",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	SilenceUsage: true,
}

func init() {
	addBusFlags(rootCmd.PersistentFlags())
}

// addBusFlags adds the flags that override the bus and ADC configuration.
func addBusFlags(pf *pflag.FlagSet) {
	pf.StringP("bus", "b", "spidev", "the bus the ADC is attached to, spidev or gpio")
	pf.String("spidev", "/dev/spidev0.0", "the spidev device node")
	pf.String("gpiochip", "gpiochip0", "the GPIO chip for the gpio bus")
	pf.String("clk", "J8p31", "the clock pin for the gpio bus")
	pf.String("csz", "J8p29", "the chip select pin for the gpio bus")
	pf.String("di", "J8p35", "the ADC data in (MOSI) pin for the gpio bus")
	pf.String("do", "J8p33", "the ADC data out (MISO) pin for the gpio bus")
	pf.IntP("mode", "m", 0, "the SPI mode, 0 or 3")
	pf.Float64P("vref", "r", 3.3, "the reference voltage")
	pf.Uint32("clock", 1000000, "the maximum bus clock rate in Hz")
	pf.Duration("wait", 0, "time to wait for the spidev node to appear")
	pf.StringP("config-file", "c", "", "the configuration file (default mcp3204.json, if present)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "mcp3204ctl %s: %s\n", cmd.Name(), err)
}

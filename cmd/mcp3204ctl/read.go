// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/sensornode/sampler"
	"github.com/warthog618/sensornode/spi/mcp3204"
)

func init() {
	rootCmd.AddCommand(readCmd)
}

var readCmd = &cobra.Command{
	Use:   "read [flags] [channel]...",
	Short: "Read ADC channels",
	Long: `Perform a conversion on each channel and print the raw code and voltage.

Channels are ch0 to ch3 for single ended inputs, and ch01, ch10, ch23 and
ch32 for differential pairs. All single ended channels are read by default.`,
	RunE:                  read,
	DisableFlagsInUseLine: true,
}

var defaultChannels = []string{"ch0", "ch1", "ch2", "ch3"}

func read(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = defaultChannels
	}
	inputs, err := parseInputs(args)
	if err != nil {
		return err
	}
	adc, err := openADC(loadConfig(cmd))
	if err != nil {
		return err
	}
	defer adc.Close()
	s := sampler.New(adc, inputs)
	failed := false
	for _, sample := range s.PollOnce() {
		if sample.Err != nil {
			logErr(cmd, fmt.Errorf("%s: %w", sample.Input.Channel, sample.Err))
			failed = true
			continue
		}
		fmt.Println(sampler.FormatSample(sample))
	}
	if failed {
		return errors.New("conversion failed")
	}
	return nil
}

func parseInputs(args []string) ([]sampler.Input, error) {
	inputs := make([]sampler.Input, 0, len(args))
	for _, arg := range args {
		ch, err := mcp3204.ParseChannel(arg)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, sampler.Input{Name: ch.String(), Channel: ch})
	}
	return inputs, nil
}

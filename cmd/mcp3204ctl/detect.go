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
	"github.com/warthog618/sensornode/spi/spidev"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect available spidev devices",
	Long:  `List all the spidev device nodes available on the system.`,
	Args:  cobra.NoArgs,
	RunE:  detect,
}

func detect(cmd *cobra.Command, args []string) error {
	pp := spidev.Devices()
	if len(pp) == 0 {
		return errors.New("no spidev devices found")
	}
	for _, p := range pp {
		fmt.Println(p)
	}
	return nil
}

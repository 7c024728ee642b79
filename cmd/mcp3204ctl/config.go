// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
)

var defaultConfig = map[string]interface{}{
	"bus":      "spidev",
	"spidev":   "/dev/spidev0.0",
	"gpiochip": "gpiochip0",
	"clk":      "J8p31",
	"csz":      "J8p29",
	"di":       "J8p35",
	"do":       "J8p33",
	"mode":     0,
	"vref":     3.3,
	"clock":    1000000,
	"wait":     "0s",
}

// loadConfig merges, in decreasing priority, the flags explicitly set on the
// command line, the MCP3204_ environment variables, the config file, and the
// defaults.
//
// The config file is optional unless named by --config-file or
// MCP3204_CONFIG_FILE, so config.file must not be given a default.
func loadConfig(cmd *cobra.Command) *config.Config {
	def := dict.New(dict.WithMap(defaultConfig))
	cfg := config.New(
		dict.New(dict.WithMap(setFlags(cmd))),
		env.New(env.WithEnvPrefix("MCP3204_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "mcp3204.json", json.NewDecoder()))
	return cfg.GetConfig("", config.WithMust())
}

// setFlags returns the values of the flags set on the command line, keyed in
// the same form as the environment, i.e. config-file becomes config.file.
func setFlags(cmd *cobra.Command) map[string]interface{} {
	m := map[string]interface{}{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		m[strings.ReplaceAll(f.Name, "-", ".")] = f.Value.String()
	})
	return m
}

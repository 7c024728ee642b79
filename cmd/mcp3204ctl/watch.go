// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/sensornode/sampler"
	"go.uber.org/zap"
)

func init() {
	watchCmd.Flags().StringVarP(&watchOpts.Plan, "plan", "p", "", "the sampling plan file")
	watchCmd.Flags().DurationVarP(&watchOpts.Interval, "interval", "i", sampler.DefaultInterval,
		"the period between polls, if no plan is provided")
	watchCmd.Flags().IntVarP(&watchOpts.Count, "count", "n", 0, "exit after n polls")
	watchCmd.Flags().BoolVarP(&watchOpts.Verbose, "verbose", "v", false, "log each sample")
	rootCmd.AddCommand(watchCmd)
}

var (
	watchCmd = &cobra.Command{
		Use:   "watch [flags] [channel]...",
		Short: "Periodically read ADC channels",
		Long: `Periodically read ADC channels and print the samples to standard output.

The channels, interval and any Modbus or serial outputs may be provided in a
YAML plan file, in which case channels on the command line are ignored.`,
		RunE:                  watch,
		DisableFlagsInUseLine: true,
	}
	watchOpts = struct {
		Plan     string
		Interval time.Duration
		Count    int
		Verbose  bool
	}{}
)

func watch(cmd *cobra.Command, args []string) error {
	interval := watchOpts.Interval
	var inputs []sampler.Input
	var sinks []sampler.Sink
	var err error
	if watchOpts.Plan != "" {
		plan, err := sampler.LoadPlan(watchOpts.Plan)
		if err != nil {
			return err
		}
		interval = plan.Interval
		if inputs, err = plan.SamplerInputs(); err != nil {
			return err
		}
		if sinks, err = plan.OpenSinks(); err != nil {
			return err
		}
	} else {
		if len(args) == 0 {
			args = defaultChannels
		}
		if inputs, err = parseInputs(args); err != nil {
			return err
		}
	}
	log, err := newLogger(watchOpts.Verbose)
	if err != nil {
		return err
	}
	opts := []sampler.Option{
		sampler.WithInterval(interval),
		sampler.WithLimit(watchOpts.Count),
		sampler.WithLogger(log),
		sampler.WithSink(sampler.NewWriterSink("stdout", os.Stdout)),
	}
	if watchOpts.Verbose {
		opts = append(opts, sampler.WithSink(sampler.NewLogSink(log)))
	}
	for _, sink := range sinks {
		opts = append(opts, sampler.WithSink(sink))
	}
	adc, err := openADC(loadConfig(cmd))
	if err != nil {
		for _, sink := range sinks {
			sink.Close()
		}
		return err
	}
	defer adc.Close()
	s := sampler.New(adc, inputs, opts...)
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	log.Debug("watching",
		zap.Int("inputs", len(inputs)),
		zap.Duration("interval", interval),
		zap.Int("count", watchOpts.Count))
	if err = s.Run(ctx); err == context.Canceled {
		return nil
	}
	return err
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

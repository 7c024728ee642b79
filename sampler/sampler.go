// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package sampler periodically converts a set of ADC inputs and delivers the
// resulting samples to a set of sinks.
package sampler

import (
	"context"
	"time"

	"github.com/warthog618/sensornode/spi/mcp3204"
	"go.uber.org/zap"
)

// Converter performs conversions on an ADC.
//
// It is satisfied by *mcp3204.MCP3204.
type Converter interface {
	// Convert performs a conversion and returns the raw code.
	Convert(mode mcp3204.InputMode, ch mcp3204.Channel) (uint16, error)

	// Voltage returns the voltage of the most recent successful conversion.
	Voltage() float64
}

// Input is a named ADC input.
type Input struct {
	Name    string
	Channel mcp3204.Channel
}

// Sample is the result of converting an Input.
type Sample struct {
	Time  time.Time
	Input Input
	Code  uint16
	Volts float64
	// Err is non-nil if the conversion failed, in which case Code and Volts
	// are zero.
	Err error
}

// DefaultInterval is the period between polls if none is specified.
const DefaultInterval = time.Second

// Sampler polls a fixed set of inputs.
type Sampler struct {
	adc      Converter
	inputs   []Input
	interval time.Duration
	limit    int
	log      *zap.Logger
	sinks    []Sink
	now      func() time.Time
}

// New creates a Sampler that converts the inputs on the adc.
func New(adc Converter, inputs []Input, options ...Option) *Sampler {
	s := &Sampler{
		adc:      adc,
		inputs:   append([]Input(nil), inputs...),
		interval: DefaultInterval,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Option modifies the construction of a Sampler.
type Option func(*Sampler)

// WithInterval sets the period between polls.
//
// Non-positive intervals are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLimit stops Run after n polls. Zero, the default, polls until the
// context is cancelled.
func WithLimit(n int) Option {
	return func(s *Sampler) {
		s.limit = n
	}
}

// WithLogger sets the logger used to report sink failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Sampler) {
		s.log = l
	}
}

// WithSink adds a sink that receives each batch of samples.
func WithSink(sink Sink) Option {
	return func(s *Sampler) {
		s.sinks = append(s.sinks, sink)
	}
}

// WithClock sets the time source used to timestamp samples.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// Inputs returns the inputs polled by the sampler.
func (s *Sampler) Inputs() []Input {
	return append([]Input(nil), s.inputs...)
}

// PollOnce converts each input in turn and returns the samples.
//
// Failed conversions are reported in the sample and are not retried.
func (s *Sampler) PollOnce() []Sample {
	samples := make([]Sample, 0, len(s.inputs))
	for _, in := range s.inputs {
		sample := Sample{Input: in}
		code, err := s.adc.Convert(in.Channel.Mode(), in.Channel)
		sample.Time = s.now()
		if err != nil {
			sample.Err = err
		} else {
			sample.Code = code
			sample.Volts = s.adc.Voltage()
		}
		samples = append(samples, sample)
	}
	return samples
}

// Run polls the inputs every interval, delivering each batch to the sinks,
// until the context is done or the poll limit is reached.
//
// Returns the context error if the context is done first.
func (s *Sampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	polls := 0
	for {
		s.deliver(s.PollOnce())
		polls++
		if s.limit > 0 && polls >= s.limit {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close closes the sinks, returning the first error encountered.
func (s *Sampler) Close() error {
	var err error
	for _, sink := range s.sinks {
		if serr := sink.Close(); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}

func (s *Sampler) deliver(samples []Sample) {
	for _, sink := range s.sinks {
		if err := sink.Write(samples); err != nil {
			s.log.Warn("sink write failed", zap.Stringer("sink", sink), zap.Error(err))
		}
	}
}

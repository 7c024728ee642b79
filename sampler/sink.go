// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package sampler

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Sink receives batches of samples.
type Sink interface {
	fmt.Stringer

	// Write delivers a batch of samples, one per input, in input order.
	Write(samples []Sample) error

	// Close releases any resources held by the sink.
	Close() error
}

// FormatSample renders a sample as a single line of text, without the
// trailing newline.
func FormatSample(s Sample) string {
	if s.Err != nil {
		return fmt.Sprintf("%s=error %v", s.Input.Channel, s.Err)
	}
	return fmt.Sprintf("%s=0x%04x %.4fV", s.Input.Channel, s.Code, s.Volts)
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// LogSink writes samples to a zap logger.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a sink writing to the logger.
func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{log: l}
}

func (l *LogSink) String() string {
	return "log"
}

// Write logs each sample, failed conversions at warn level.
func (l *LogSink) Write(samples []Sample) error {
	for _, s := range samples {
		fields := []zap.Field{
			zap.String("input", s.Input.Name),
			zap.Stringer("channel", s.Input.Channel),
			zap.Time("time", s.Time),
		}
		if s.Err != nil {
			l.log.Warn("conversion failed", append(fields, zap.Error(s.Err))...)
			continue
		}
		l.log.Info("sample",
			append(fields, zap.Uint16("code", s.Code), zap.Float64("volts", s.Volts))...)
	}
	return nil
}

// Close syncs the logger.
func (l *LogSink) Close() error {
	// Sync commonly fails on stdout and stderr, which is not worth reporting.
	_ = l.log.Sync()
	return nil
}

// WriterSink writes samples as lines of text, one per sample.
type WriterSink struct {
	mu   sync.Mutex
	name string
	w    io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(name string, w io.Writer) *WriterSink {
	return &WriterSink{name: name, w: w}
}

func (w *WriterSink) String() string {
	return w.name
}

// Write writes a line per sample, prefixed with the sample time and input
// name.
func (w *WriterSink) Write(samples []Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range samples {
		_, err := fmt.Fprintf(w.w, "%s %s %s\n",
			s.Time.Format(timeFormat), s.Input.Name, FormatSample(s))
		if err != nil {
			return err
		}
	}
	return nil
}

// Close is a nop. The writer remains owned by the caller.
func (w *WriterSink) Close() error {
	return nil
}

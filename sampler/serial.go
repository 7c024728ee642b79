// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package sampler

import (
	"io"

	"github.com/tarm/serial"
)

// SerialConfig identifies the serial port a SerialSink writes to.
type SerialConfig struct {
	Port string
	Baud int
}

// SerialSink writes samples to a serial port, in the same line format as a
// WriterSink.
type SerialSink struct {
	*WriterSink
	port io.Closer
}

// NewSerialSink opens the serial port.
func NewSerialSink(cfg SerialConfig) (*SerialSink, error) {
	port, err := serial.OpenPort(&serial.Config{Name: cfg.Port, Baud: cfg.Baud})
	if err != nil {
		return nil, err
	}
	return &SerialSink{
		WriterSink: NewWriterSink("serial "+cfg.Port, port),
		port:       port,
	}, nil
}

// Close closes the serial port.
func (s *SerialSink) Close() error {
	return s.port.Close()
}

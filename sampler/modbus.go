// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package sampler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ErrorCode is the register value written for inputs whose conversion
// failed. It is outside the range of valid 12-bit codes.
const ErrorCode = 0xffff

// ModbusConfig identifies the holding registers a ModbusSink writes to.
type ModbusConfig struct {
	Endpoint string
	UnitID   uint8
	// Address is the first register. Input i is written to Address+i.
	Address uint16
	Timeout time.Duration
}

// ModbusSink writes the codes of each batch of samples to consecutive
// holding registers on a Modbus TCP server.
type ModbusSink struct {
	mu       sync.Mutex
	endpoint string
	address  uint16
	handler  *modbus.TCPClientHandler
	client   modbus.Client
}

// NewModbusSink connects to the Modbus TCP server.
func NewModbusSink(cfg ModbusConfig) (*ModbusSink, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus sink: endpoint required")
	}
	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID
	if err := h.Connect(); err != nil {
		return nil, err
	}
	return &ModbusSink{
		endpoint: cfg.Endpoint,
		address:  cfg.Address,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

func (m *ModbusSink) String() string {
	return fmt.Sprintf("modbus %s", m.endpoint)
}

// Write writes the batch in a single write multiple registers request.
func (m *ModbusSink) Write(samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	regs := make([]uint16, len(samples))
	for i, s := range samples {
		regs[i] = s.Code
		if s.Err != nil {
			regs[i] = ErrorCode
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.client.WriteMultipleRegisters(m.address, uint16(len(regs)), packRegisters(regs))
	return err
}

// Close closes the connection to the server.
func (m *ModbusSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handler.Close()
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package sampler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/warthog618/sensornode/spi/mcp3204"
	"gopkg.in/yaml.v3"
)

// Plan describes what to sample, how often, and where to send it.
type Plan struct {
	Interval time.Duration `yaml:"interval"`
	Inputs   []InputPlan   `yaml:"inputs"`
	Modbus   *ModbusPlan   `yaml:"modbus"`
	Serial   *SerialPlan   `yaml:"serial"`
}

// InputPlan names an input and the channel it is converted on.
//
// The name defaults to the channel name.
type InputPlan struct {
	Name    string `yaml:"name"`
	Channel string `yaml:"channel"`
}

// ModbusPlan is the optional Modbus TCP sink.
type ModbusPlan struct {
	Endpoint string        `yaml:"endpoint"`
	UnitID   uint8         `yaml:"unit_id"`
	Address  uint16        `yaml:"address"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SerialPlan is the optional serial port sink.
type SerialPlan struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

const (
	defaultModbusTimeout = time.Second
	defaultBaud          = 9600
)

// LoadPlan reads and validates the plan in the file at path.
func LoadPlan(path string) (*Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParsePlan(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParsePlan decodes a YAML plan, fills in defaults, and validates it.
//
// Unknown fields are rejected.
func ParsePlan(b []byte) (*Plan, error) {
	var p Plan
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return nil, err
	}
	p.normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Plan) normalize() {
	if p.Interval == 0 {
		p.Interval = DefaultInterval
	}
	for i := range p.Inputs {
		if p.Inputs[i].Name == "" {
			p.Inputs[i].Name = p.Inputs[i].Channel
		}
	}
	if p.Modbus != nil && p.Modbus.Timeout == 0 {
		p.Modbus.Timeout = defaultModbusTimeout
	}
	if p.Serial != nil && p.Serial.Baud == 0 {
		p.Serial.Baud = defaultBaud
	}
}

// Validate checks the plan is complete and consistent.
// It does not modify the plan.
func (p *Plan) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", p.Interval)
	}
	if len(p.Inputs) == 0 {
		return errors.New("no inputs")
	}
	names := make(map[string]bool)
	for i, in := range p.Inputs {
		if _, err := mcp3204.ParseChannel(in.Channel); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if in.Name == "" {
			return fmt.Errorf("input %d: name required", i)
		}
		if names[in.Name] {
			return fmt.Errorf("input %d: duplicate name %q", i, in.Name)
		}
		names[in.Name] = true
	}
	if m := p.Modbus; m != nil {
		if m.Endpoint == "" {
			return errors.New("modbus: endpoint required")
		}
		if int(m.Address)+len(p.Inputs) > 0x10000 {
			return fmt.Errorf("modbus: %d registers from address %d exceed the register space",
				len(p.Inputs), m.Address)
		}
		if m.Timeout < 0 {
			return fmt.Errorf("modbus: timeout must not be negative, got %s", m.Timeout)
		}
	}
	if s := p.Serial; s != nil {
		if s.Port == "" {
			return errors.New("serial: port required")
		}
		if s.Baud <= 0 {
			return fmt.Errorf("serial: baud must be positive, got %d", s.Baud)
		}
	}
	return nil
}

// SamplerInputs returns the inputs described by the plan.
func (p *Plan) SamplerInputs() ([]Input, error) {
	inputs := make([]Input, 0, len(p.Inputs))
	for _, in := range p.Inputs {
		ch, err := mcp3204.ParseChannel(in.Channel)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, Input{Name: in.Name, Channel: ch})
	}
	return inputs, nil
}

// OpenSinks opens the sinks described by the plan.
//
// If any sink fails to open then those already opened are closed.
func (p *Plan) OpenSinks() ([]Sink, error) {
	var sinks []Sink
	if m := p.Modbus; m != nil {
		s, err := NewModbusSink(ModbusConfig{
			Endpoint: m.Endpoint,
			UnitID:   m.UnitID,
			Address:  m.Address,
			Timeout:  m.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("modbus %s: %w", m.Endpoint, err)
		}
		sinks = append(sinks, s)
	}
	if sp := p.Serial; sp != nil {
		s, err := NewSerialSink(SerialConfig{Port: sp.Port, Baud: sp.Baud})
		if err != nil {
			for _, o := range sinks {
				o.Close()
			}
			return nil, fmt.Errorf("serial %s: %w", sp.Port, err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

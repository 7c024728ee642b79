// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package sampler_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/sensornode/sampler"
	"github.com/warthog618/sensornode/spi/mcp3204"
)

const fullPlan = `
interval: 250ms
inputs:
  - name: battery
    channel: ch0
  - channel: CH23
modbus:
  endpoint: 127.0.0.1:1502
  unit_id: 3
  address: 40
serial:
  port: /dev/ttyUSB0
  baud: 115200
`

func TestParsePlan(t *testing.T) {
	p, err := sampler.ParsePlan([]byte(fullPlan))
	require.Nil(t, err)
	assert.Equal(t, 250*time.Millisecond, p.Interval)
	assert.Equal(t, []sampler.InputPlan{
		{Name: "battery", Channel: "ch0"},
		{Name: "CH23", Channel: "CH23"},
	}, p.Inputs)
	require.NotNil(t, p.Modbus)
	assert.Equal(t, sampler.ModbusPlan{
		Endpoint: "127.0.0.1:1502",
		UnitID:   3,
		Address:  40,
		Timeout:  time.Second,
	}, *p.Modbus)
	require.NotNil(t, p.Serial)
	assert.Equal(t, sampler.SerialPlan{Port: "/dev/ttyUSB0", Baud: 115200}, *p.Serial)

	inputs, err := p.SamplerInputs()
	require.Nil(t, err)
	assert.Equal(t, []sampler.Input{
		{Name: "battery", Channel: mcp3204.CH0},
		{Name: "CH23", Channel: mcp3204.CH23},
	}, inputs)
}

func TestParsePlanDefaults(t *testing.T) {
	p, err := sampler.ParsePlan([]byte("inputs: [{channel: ch1}]\nserial: {port: /dev/ttyS0}\n"))
	require.Nil(t, err)
	assert.Equal(t, sampler.DefaultInterval, p.Interval)
	assert.Nil(t, p.Modbus)
	require.NotNil(t, p.Serial)
	assert.Equal(t, 9600, p.Serial.Baud)
}

func TestParsePlanInvalid(t *testing.T) {
	patterns := []struct {
		name string
		plan string
		err  string
	}{
		{"empty", "", "no inputs"},
		{"negative interval", "interval: -1s\ninputs: [{channel: ch0}]", "interval must be positive, got -1s"},
		{"bad channel", "inputs: [{channel: ch4}]", "input 0: unknown channel 'ch4'"},
		{"duplicate name", "inputs: [{channel: ch0}, {name: ch0, channel: ch1}]", `input 1: duplicate name "ch0"`},
		{"no endpoint", "inputs: [{channel: ch0}]\nmodbus: {unit_id: 1}", "modbus: endpoint required"},
		{"register overflow",
			"inputs: [{channel: ch0}, {channel: ch1}]\nmodbus: {endpoint: 'h:502', address: 65535}",
			"modbus: 2 registers from address 65535 exceed the register space"},
		{"no port", "inputs: [{channel: ch0}]\nserial: {baud: 9600}", "serial: port required"},
		{"negative baud", "inputs: [{channel: ch0}]\nserial: {port: p, baud: -1}", "serial: baud must be positive, got -1"},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			_, err := sampler.ParsePlan([]byte(p.plan))
			assert.EqualError(t, err, p.err)
		}
		t.Run(p.name, tf)
	}
}

func TestParsePlanUnknownField(t *testing.T) {
	_, err := sampler.ParsePlan([]byte("inputs: [{channel: ch0}]\nperiod: 1s\n"))
	assert.NotNil(t, err)
}

func TestLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.Nil(t, os.WriteFile(path, []byte(fullPlan), 0644))
	p, err := sampler.LoadPlan(path)
	require.Nil(t, err)
	assert.Len(t, p.Inputs, 2)

	_, err = sampler.LoadPlan(filepath.Join(dir, "missing.yaml"))
	assert.NotNil(t, err)

	require.Nil(t, os.WriteFile(path, []byte("inputs: []"), 0644))
	_, err = sampler.LoadPlan(path)
	assert.EqualError(t, err, path+": no inputs")
}

func TestOpenSinks(t *testing.T) {
	srv := newServer(t)
	p, err := sampler.ParsePlan([]byte("inputs: [{channel: ch0}]\nmodbus: {endpoint: '" + srv.Addr() + "'}\n"))
	require.Nil(t, err)
	sinks, err := p.OpenSinks()
	require.Nil(t, err)
	require.Len(t, sinks, 1)
	assert.Equal(t, "modbus "+srv.Addr(), sinks[0].String())
	for _, s := range sinks {
		s.Close()
	}

	p.Serial = &sampler.SerialPlan{Port: "/dev/nonexistent-tty", Baud: 9600}
	_, err = p.OpenSinks()
	assert.NotNil(t, err)
}

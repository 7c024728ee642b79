// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package spidev

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/pilebones/go-udev/netlink"
)

// ErrTimeout indicates the device node did not appear within the allowed
// time.
var ErrTimeout = errors.New("timeout waiting for spidev device")

// Wait blocks until the device node at path exists, or the timeout expires.
//
// This covers the window between an SPI overlay being loaded and udev
// creating the corresponding device node.
func Wait(path string, timeout time.Duration) error {
	if exists(path) {
		return nil
	}
	um, err := newUdevMonitor(path)
	if err != nil {
		return fmt.Errorf("failed to start udev monitor: %w", err)
	}
	defer um.close()
	// the node may have been created before the monitor started
	if exists(path) {
		return nil
	}
	select {
	case <-um.queue:
		return nil
	case err := <-um.errors:
		return err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type udevMonitor struct {
	conn   *netlink.UEventConn
	queue  chan netlink.UEvent
	errors chan error
	quit   chan struct{}
}

// matcher returns the rule matching the addition of the spidev node at path.
func matcher(path string) *netlink.RuleDefinition {
	action := "add"
	return &netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "spidev",
			"DEVNAME":   "^" + regexp.QuoteMeta(path) + "$",
		}}
}

func newUdevMonitor(path string) (*udevMonitor, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, fmt.Errorf("unable to connect to Netlink Kobject UEvent socket")
	}
	queue := make(chan netlink.UEvent, 1)
	errs := make(chan error, 1)
	quit := conn.Monitor(queue, errs, matcher(path))
	return &udevMonitor{conn: conn, queue: queue, errors: errs, quit: quit}, nil
}

func (m *udevMonitor) close() {
	close(m.quit)
	m.conn.Close()
}

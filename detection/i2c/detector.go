// go-cr14
// Copyright (c) 2025 The Piccworks Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-cr14.
//
// go-cr14 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-cr14 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-cr14; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package i2c detects raw CR14 chips on I2C buses. This helps confirm
// wiring before the kernel driver is bound to the chip; it does not
// turn the RF field on.
package i2c

import (
	"context"
	"fmt"

	"github.com/piccworks/go-cr14/detection"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	// DefaultCR14Address is the fixed CRX14 slave address (1010 000x).
	DefaultCR14Address = 0x50

	// parameterRegister is the chip's carrier/watchdog control register,
	// readable without touching the RF field.
	parameterRegister = 0x00
)

// detector implements the Detector interface for I2C-attached chips
type detector struct{}

// New creates a new I2C detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "i2c"
}

// Detect scans every registered I2C bus for a chip answering at the
// CR14 address. Passive mode lists the buses without probing.
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("initializing periph host: %w", err)
	}

	refs := i2creg.All()
	if len(refs) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	var devices []detection.DeviceInfo
	for _, ref := range refs {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		if opts.Mode == detection.Passive {
			continue
		}

		if probeBus(ref.Name) {
			devices = append(devices, detection.DeviceInfo{
				Path:      ref.Name,
				Transport: "i2c",
				Metadata: map[string]string{
					"address": fmt.Sprintf("0x%02X", DefaultCR14Address),
				},
			})
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// probeBus opens one bus and reads the parameter register at the CR14
// address. Any answer means a chip is wired there.
func probeBus(name string) bool {
	bus, err := i2creg.Open(name)
	if err != nil {
		return false
	}
	defer func() { _ = bus.Close() }()

	dev := &i2c.Dev{Addr: DefaultCR14Address, Bus: bus}
	var value [1]byte
	if err := dev.Tx([]byte{parameterRegister}, value[:]); err != nil {
		return false
	}
	return true
}

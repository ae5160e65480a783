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

// Package detection locates CR14 readers on the local machine: device
// nodes created by the kernel driver, and raw chips on I2C buses that
// no driver has claimed yet. Detection never initializes hardware.
package detection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Detection errors
var (
	// ErrNoDevicesFound indicates no reader was located.
	ErrNoDevicesFound = errors.New("no CR14 devices found")
	// ErrUnsupportedPlatform indicates the detector cannot run on this
	// platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrDetectionTimeout indicates detection was cut short.
	ErrDetectionTimeout = errors.New("detection timeout")
)

// Mode controls how intrusive detection may be.
type Mode int

const (
	// Safe probes candidate devices with harmless reads.
	Safe Mode = iota
	// Passive only lists candidates without touching them.
	Passive
)

// Options configures a detection run.
type Options struct {
	// Mode selects probe intrusiveness.
	Mode Mode
	// Timeout bounds the whole run.
	Timeout time.Duration
}

// DefaultOptions returns the default detection options.
func DefaultOptions() Options {
	return Options{Mode: Safe, Timeout: 5 * time.Second}
}

// DeviceInfo describes one located reader.
type DeviceInfo struct {
	Metadata  map[string]string
	Path      string
	Transport string
}

// Detector finds readers reachable through one transport kind.
type Detector interface {
	// Transport names the transport this detector covers.
	Transport() string
	// Detect returns the readers found.
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   []Detector
)

// RegisterDetector adds a detector to the global registry. Detector
// packages call this from init, so importing them for side effects is
// enough to enable them.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, d)
}

// DetectAll runs every registered detector and merges the results.
// Detectors that fail are skipped; only an empty overall result is an
// error.
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	registryMu.RLock()
	detectors := append([]Detector(nil), registry...)
	registryMu.RUnlock()

	var devices []DeviceInfo
	for _, d := range detectors {
		select {
		case <-ctx.Done():
			if len(devices) > 0 {
				return devices, nil
			}
			return nil, ErrDetectionTimeout
		default:
		}

		found, err := d.Detect(ctx, opts)
		if err != nil {
			continue
		}
		devices = append(devices, found...)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

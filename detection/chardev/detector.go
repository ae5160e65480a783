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

// Package chardev detects device nodes created by the kernel cr14
// driver.
package chardev

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/piccworks/go-cr14/detection"
)

// nodePattern matches the device nodes the driver registers.
const nodePattern = "/dev/rfid*"

// detector implements the Detector interface for driver device nodes
type detector struct{}

// New creates a new character device detector
func New() detection.Detector {
	return &detector{}
}

// init registers the detector on package import
func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "chardev"
}

// Detect lists /dev/rfid* nodes. In Safe mode each node is also
// stat-checked to confirm it is a character device.
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	if runtime.GOOS != "linux" {
		return nil, detection.ErrUnsupportedPlatform
	}

	matches, err := filepath.Glob(nodePattern)
	if err != nil {
		return nil, fmt.Errorf("scanning device nodes: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, path := range matches {
		select {
		case <-ctx.Done():
			return devices, detection.ErrDetectionTimeout
		default:
		}

		if opts.Mode != detection.Passive && !isCharDevice(path) {
			continue
		}

		devices = append(devices, detection.DeviceInfo{
			Path:      path,
			Transport: "chardev",
			Metadata:  map[string]string{"driver": "cr14"},
		})
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// isCharDevice stat-checks a candidate node.
func isCharDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

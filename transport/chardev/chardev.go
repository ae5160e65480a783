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

// Package chardev provides the character device transport for CR14
// readers driven by the kernel cr14 module, typically /dev/rfid0.
package chardev

import (
	"fmt"
	"os"
	"sync"
	"time"

	cr14 "github.com/piccworks/go-cr14"
)

// DefaultDevice is the first device node the kernel driver creates.
const DefaultDevice = "/dev/rfid0"

// Transport implements the cr14.Transport interface on a character
// device node.
type Transport struct {
	file    *os.File
	path    string
	mu      sync.Mutex
	timeout time.Duration
}

// Open opens a reader device node for bidirectional use. The driver
// starts the device in idle mode, awaiting commands.
func Open(path string) (*Transport, error) {
	return open(path, os.O_RDWR)
}

// OpenReadOnly opens a reader device node read-only. The driver then
// configures the device in poll-repeat mode and streams UID
// announcements; consume them with Device.ReadAnnouncement.
func OpenReadOnly(path string) (*Transport, error) {
	return open(path, os.O_RDONLY)
}

func open(path string, flag int) (*Transport, error) {
	if path == "" {
		path = DefaultDevice
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("opening reader device %s: %w", path, err)
	}
	return &Transport{file: file, path: path}, nil
}

// Read reads from the device, honoring the configured read timeout.
// The driver only ever produces whole frames, so a successful read
// never splits a byte the engine is not prepared for.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	file := t.file
	timeout := t.timeout
	t.mu.Unlock()

	if file == nil {
		return 0, cr14.ErrTransportClosed
	}

	if timeout > 0 {
		ready, err := waitReadable(file, timeout)
		if err != nil {
			return 0, cr14.NewTransportError("Read", t.path, err, cr14.ErrorTypePermanent)
		}
		if !ready {
			return 0, cr14.NewTimeoutError("Read", t.path)
		}
	}

	n, err := file.Read(p)
	if err != nil {
		return n, cr14.NewTransportError("Read", t.path, err, cr14.ErrorTypePermanent)
	}
	return n, nil
}

// Write writes a full message to the device. The driver accepts writes
// while reads are pending.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	file := t.file
	t.mu.Unlock()

	if file == nil {
		return 0, cr14.ErrTransportClosed
	}

	n, err := file.Write(p)
	if err != nil {
		return n, cr14.NewTransportError("Write", t.path, err, cr14.ErrorTypePermanent)
	}
	return n, nil
}

// SetReadTimeout sets the blocking read timeout. Zero blocks
// indefinitely.
func (t *Transport) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close closes the device node.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	if err != nil {
		return fmt.Errorf("closing reader device %s: %w", t.path, err)
	}
	return nil
}

// IsConnected returns true while the device node is open.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.file != nil
}

// Type returns the transport type
func (*Transport) Type() cr14.TransportType {
	return cr14.TransportChardev
}

// Path returns the device node path.
func (t *Transport) Path() string {
	return t.path
}

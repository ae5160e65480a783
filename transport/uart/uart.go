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

// Package uart provides a serial transport for CR14 readers reached
// through a bridge that forwards the character device protocol over a
// UART, e.g. a USB-to-serial adapter on an embedded board.
package uart

import (
	"fmt"
	"sync"
	"time"

	cr14 "github.com/piccworks/go-cr14"
	"go.bug.st/serial"
)

// DefaultBaudRate matches the common bridge firmware configuration.
const DefaultBaudRate = 115200

// Transport implements the cr14.Transport interface over a serial
// port.
type Transport struct {
	port     serial.Port
	path     string
	mu       sync.Mutex
	baudRate int
	timeout  time.Duration
	closed   bool
}

// Config holds serial port settings for New.
type Config struct {
	// Path is the serial device, e.g. /dev/ttyUSB0 or COM3.
	Path string
	// BaudRate defaults to DefaultBaudRate when zero.
	BaudRate int
}

// New opens a serial transport.
func New(path string) (*Transport, error) {
	return NewWithConfig(Config{Path: path})
}

// NewWithConfig opens a serial transport with explicit settings.
func NewWithConfig(cfg Config) (*Transport, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: empty serial path", cr14.ErrInvalidParameter)
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", cfg.Path, err)
	}

	t := &Transport{port: port, path: cfg.Path, baudRate: cfg.BaudRate}
	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("configuring serial port %s: %w", cfg.Path, err)
	}
	return t, nil
}

// Read reads from the port. The serial layer signals a timeout as a
// zero-length read, which is mapped to the timeout error the engine
// expects.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	port, closed := t.port, t.closed
	t.mu.Unlock()

	if closed {
		return 0, cr14.ErrTransportClosed
	}

	n, err := port.Read(p)
	if err != nil {
		return n, cr14.NewTransportError("Read", t.path, err, cr14.ErrorTypePermanent)
	}
	if n == 0 {
		return 0, cr14.NewTimeoutError("Read", t.path)
	}
	return n, nil
}

// Write writes a full message to the port.
func (t *Transport) Write(p []byte) (int, error) {
	t.mu.Lock()
	port, closed := t.port, t.closed
	t.mu.Unlock()

	if closed {
		return 0, cr14.ErrTransportClosed
	}

	n, err := port.Write(p)
	if err != nil {
		return n, cr14.NewTransportError("Write", t.path, err, cr14.ErrorTypePermanent)
	}
	if n < len(p) {
		return n, cr14.NewTransportError("Write", t.path,
			fmt.Errorf("short write: %d of %d bytes", n, len(p)), cr14.ErrorTypeTransient)
	}
	return n, nil
}

// SetReadTimeout sets the blocking read timeout. Zero blocks
// indefinitely.
func (t *Transport) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout

	serialTimeout := timeout
	if timeout == 0 {
		serialTimeout = serial.NoTimeout
	}
	if err := t.port.SetReadTimeout(serialTimeout); err != nil {
		return fmt.Errorf("setting serial read timeout: %w", err)
	}
	return nil
}

// Close closes the serial port.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("closing serial port %s: %w", t.path, err)
	}
	return nil
}

// IsConnected returns true while the port is open.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.closed
}

// Type returns the transport type
func (*Transport) Type() cr14.TransportType {
	return cr14.TransportUART
}

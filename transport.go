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

package cr14

import (
	"io"
	"time"
)

// Transport is the bidirectional byte-stream device the engine speaks
// through. This can be implemented by the kernel character device, a
// serial bridge, or a mock.
//
// Writes must put the whole buffer on the wire before returning; the
// device accepts writes while a read is pending. Reads block until
// bytes are available, the configured read timeout elapses, or the
// transport is closed. A timed-out read must return an error wrapping
// ErrTimeout.
type Transport interface {
	io.ReadWriter

	// Close closes the transport connection
	Close() error

	// SetReadTimeout sets the blocking read timeout. Zero means block
	// indefinitely.
	SetReadTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportChardev represents the kernel character device transport.
	TransportChardev TransportType = "chardev"
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

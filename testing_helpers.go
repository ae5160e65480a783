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
	"bytes"
	"sync"
	"time"

	"github.com/piccworks/go-cr14/internal/frame"
)

// MockTransport is a scripted byte-stream transport for tests. Queue
// the device-to-host bytes ahead of time (or from a WriteHook) and
// inspect everything the engine wrote. Reads of an empty queue fail
// with a timeout, matching a silent reader.
type MockTransport struct {
	// WriteHook, when set, observes every host-to-device write and may
	// queue reply bytes before the engine starts reading.
	WriteHook func(wire []byte)

	pending bytes.Buffer
	written bytes.Buffer
	mu      sync.Mutex
	timeout time.Duration
	closed  bool
}

// NewMockTransport creates an empty scripted transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// QueueBytes appends raw device-to-host bytes for the engine to read.
func (m *MockTransport) QueueBytes(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.Write(data)
}

// QueueAnnouncement appends a full 'u' announcement frame for uid.
func (m *MockTransport) QueueAnnouncement(uid UID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending.WriteByte(frame.TagUID)
	m.pending.Write(uid[:])
}

// Written returns a copy of every byte the engine has written so far.
func (m *MockTransport) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written.Bytes()...)
}

// Read returns queued bytes, or a timeout error when the queue is dry.
func (m *MockTransport) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrTransportClosed
	}
	if m.pending.Len() == 0 {
		return 0, NewTimeoutError("Read", "mock")
	}
	return m.pending.Read(p)
}

// Write records the engine's bytes and fires the WriteHook.
func (m *MockTransport) Write(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrTransportClosed
	}
	m.written.Write(p)
	hook := m.WriteHook
	m.mu.Unlock()

	if hook != nil {
		hook(append([]byte(nil), p...))
	}
	return len(p), nil
}

// SetReadTimeout records the requested timeout.
func (m *MockTransport) SetReadTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// IsConnected reports whether Close has been called.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

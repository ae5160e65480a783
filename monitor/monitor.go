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

// Package monitor provides continuous card watching on top of the
// reader's poll-repeat mode.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cr14 "github.com/piccworks/go-cr14"
)

// Config holds monitor timing parameters.
type Config struct {
	// PollInterval is how long one announcement read waits before the
	// monitor checks for removal and re-enters the read.
	PollInterval time.Duration
	// RemovalTimeout is how long the field must stay silent before a
	// present card is considered removed. The reader re-announces a
	// present card continuously in poll-repeat mode, so silence means
	// absence.
	RemovalTimeout time.Duration
}

// DefaultConfig returns the default monitor timing.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:   250 * time.Millisecond,
		RemovalTimeout: time.Second,
	}
}

// CardState is the monitor's view of the field.
type CardState struct {
	LastSeen time.Time
	LastUID  cr14.UID
	Present  bool
}

// Monitor watches the announcement stream and reports card arrival,
// change, and removal through callbacks. Callbacks run on the
// monitoring goroutine; a slow callback delays detection. GetState is
// safe to call from any goroutine while the monitor runs.
type Monitor struct {
	device         *cr14.Device
	config         *Config
	OnCardDetected func(uid cr14.UID)
	OnCardRemoved  func()
	OnCardChanged  func(uid cr14.UID)
	mu             sync.Mutex
	state          CardState
}

// NewMonitor creates a new card monitor
func NewMonitor(device *cr14.Device, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Monitor{
		device: device,
		config: config,
		state:  CardState{},
	}
}

// GetState returns the current card state
func (m *Monitor) GetState() CardState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// GetDevice returns the underlying reader device.
func (m *Monitor) GetDevice() *cr14.Device {
	return m.device
}

// Start switches the reader into poll-repeat mode and consumes
// announcements until the context ends. The reader is returned to
// idle mode on the way out.
func (m *Monitor) Start(ctx context.Context) error {
	if err := m.device.PollRepeat(); err != nil {
		return fmt.Errorf("entering poll-repeat mode: %w", err)
	}
	defer func() {
		_ = m.device.Idle()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		uid, err := m.readOne(ctx)
		if err != nil {
			if errors.Is(err, cr14.ErrTimeout) {
				m.checkRemoval()
				// Small delay so a transport that fails fast does not
				// turn the loop into a busy wait.
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(10 * time.Millisecond):
				}
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			// Protocol faults are surfaced, not retried; the caller
			// decides whether to resync and restart.
			return fmt.Errorf("announcement stream: %w", err)
		}

		m.handleAnnouncement(uid)
	}
}

// readOne waits up to one poll interval for an announcement.
func (m *Monitor) readOne(ctx context.Context) (cr14.UID, error) {
	readCtx, cancel := context.WithTimeout(ctx, m.config.PollInterval)
	defer cancel()
	return m.device.ReadAnnouncement(readCtx)
}

// handleAnnouncement updates card state and fires callbacks. The lock
// is released before a callback runs, so callbacks may call GetState.
func (m *Monitor) handleAnnouncement(uid cr14.UID) {
	m.mu.Lock()
	var fire func(cr14.UID)
	switch {
	case !m.state.Present:
		m.state.Present = true
		m.state.LastUID = uid
		fire = m.OnCardDetected
	case m.state.LastUID != uid:
		m.state.LastUID = uid
		fire = m.OnCardChanged
	}
	m.state.LastSeen = time.Now()
	m.mu.Unlock()

	if fire != nil {
		fire(uid)
	}
}

// checkRemoval fires the removal callback once the quiet window
// passes.
func (m *Monitor) checkRemoval() {
	m.mu.Lock()
	if !m.state.Present || time.Since(m.state.LastSeen) < m.config.RemovalTimeout {
		m.mu.Unlock()
		return
	}
	m.state.Present = false
	m.state.LastUID = cr14.UID{}
	fire := m.OnCardRemoved
	m.mu.Unlock()

	if fire != nil {
		fire()
	}
}

// Close returns the reader to idle mode and closes the device.
func (m *Monitor) Close() error {
	_ = m.device.Idle()
	if err := m.device.Close(); err != nil {
		return fmt.Errorf("failed to close device: %w", err)
	}
	return nil
}

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
	"context"
	"fmt"
	"time"
)

// AnnouncementHandler observes UID announcements absorbed while a
// transaction is awaiting its reply. It must not call back into the
// Device.
type AnnouncementHandler func(UID)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Timeout is the default deadline for one transaction. Zero blocks
	// indefinitely; a context deadline on the *Context variants takes
	// precedence.
	Timeout time.Duration
	// DrainTimeout is the quiet window Resync waits for when flushing a
	// desynchronized stream.
	DrainTimeout time.Duration
	// MaxAnnouncements caps how many announcement frames one
	// transaction will absorb before faulting. Zero means no cap; the
	// transaction deadline then bounds worst-case blocking.
	MaxAnnouncements int
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Timeout:          30 * time.Second,
		DrainTimeout:     200 * time.Millisecond,
		MaxAnnouncements: 0,
	}
}

// Device is the transaction engine for one CR14 reader session.
//
// Thread Safety: Device is NOT thread-safe. A transaction fully
// completes before the next may be issued; there is no pipelining of
// outstanding requests on one device handle. Callers needing
// concurrent access must serialize around a single Device, e.g. with a
// mutex per transaction.
type Device struct {
	transport      Transport
	config         *DeviceConfig
	onAnnouncement AnnouncementHandler
	desynced       bool
}

// New creates a new CR14 device engine on the given transport.
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}
	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}
	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the default per-transaction deadline.
func (d *Device) SetTimeout(timeout time.Duration) {
	d.config.Timeout = timeout
}

// Desynchronized reports whether a previous fault left the byte stream
// without a known frame boundary. While true, transactions fail with
// ErrDesynchronized until Resync is called.
func (d *Device) Desynchronized() bool {
	return d.desynced
}

// Close closes the device connection
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// Execute runs one transaction with the default deadline.
func (d *Device) Execute(req *Request) (*Result, error) {
	return d.ExecuteContext(context.Background(), req)
}

// ExecuteContext runs one request/reply transaction: the request is
// fully serialized and written, interleaved announcements are
// absorbed, and the reply is decoded and validated against the
// request. No fault is ever retried here; reissuing is the caller's
// decision.
func (d *Device) ExecuteContext(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: nil request", ErrInvalidParameter)
	}
	if d.desynced {
		return nil, ErrDesynchronized
	}

	tx := &transaction{req: req, state: txIdle, deadline: d.deadline(ctx)}
	return d.run(ctx, tx)
}

// deadline resolves the effective transaction deadline from the
// context and the configured default.
func (d *Device) deadline(ctx context.Context) time.Time {
	if t, ok := ctx.Deadline(); ok {
		return t
	}
	if d.config.Timeout > 0 {
		return time.Now().Add(d.config.Timeout)
	}
	return time.Time{}
}

// Poll waits for the next card in the field and returns its UID.
func (d *Device) Poll() (UID, error) {
	return d.PollContext(context.Background())
}

// PollContext waits for the next card in the field and returns its
// UID. A chip family warning is logged but not returned; use
// ExecuteContext with PollRequest to inspect warnings.
func (d *Device) PollContext(ctx context.Context) (UID, error) {
	result, err := d.ExecuteContext(ctx, PollRequest())
	if err != nil {
		return UID{}, err
	}
	return result.UID, nil
}

// ReadBlock reads one 4-byte block from the card with the given UID.
func (d *Device) ReadBlock(uid UID, addr byte) (Block, error) {
	return d.ReadBlockContext(context.Background(), uid, addr)
}

// ReadBlockContext reads one 4-byte block from the card with the given
// UID.
func (d *Device) ReadBlockContext(ctx context.Context, uid UID, addr byte) (Block, error) {
	result, err := d.ExecuteContext(ctx, ReadBlockRequest(uid, addr))
	if err != nil {
		return Block{}, err
	}
	return result.Blocks[0], nil
}

// ReadBlocks reads several blocks in one transaction. The result's
// blocks align positionally with the given addresses; a count
// mismatch from the reader surfaces as a warning on the result.
func (d *Device) ReadBlocks(uid UID, addrs []byte) (*Result, error) {
	return d.ReadBlocksContext(context.Background(), uid, addrs)
}

// ReadBlocksContext reads several blocks in one transaction.
func (d *Device) ReadBlocksContext(ctx context.Context, uid UID, addrs []byte) (*Result, error) {
	req, err := ReadBlocksRequest(uid, addrs)
	if err != nil {
		return nil, err
	}
	return d.ExecuteContext(ctx, req)
}

// WriteBlock writes one 4-byte block. The reader echoes the data it
// read back after writing; a mismatch surfaces as an
// ErrWriteVerification warning on the result, never an automatic
// retry.
func (d *Device) WriteBlock(uid UID, addr byte, data []byte) (*Result, error) {
	return d.WriteBlockContext(context.Background(), uid, addr, data)
}

// WriteBlockContext writes one 4-byte block.
func (d *Device) WriteBlockContext(ctx context.Context, uid UID, addr byte, data []byte) (*Result, error) {
	req, err := WriteBlockRequest(uid, addr, data)
	if err != nil {
		return nil, err
	}
	return d.ExecuteContext(ctx, req)
}

// WriteBlocks writes several blocks in one transaction, one data block
// per address in address order.
func (d *Device) WriteBlocks(uid UID, addrs []byte, data []Block) (*Result, error) {
	return d.WriteBlocksContext(context.Background(), uid, addrs, data)
}

// WriteBlocksContext writes several blocks in one transaction.
func (d *Device) WriteBlocksContext(ctx context.Context, uid UID, addrs []byte, data []Block) (*Result, error) {
	req, err := WriteBlocksRequest(uid, addrs, data)
	if err != nil {
		return nil, err
	}
	return d.ExecuteContext(ctx, req)
}

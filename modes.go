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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/piccworks/go-cr14/internal/frame"
)

// PollRepeat switches the reader into poll-repeat mode. The reader
// then emits a UID announcement for every card it detects until the
// mode is changed; consume them with ReadAnnouncement. Mode messages
// have no reply.
func (d *Device) PollRepeat() error {
	return d.writeMode(frame.TagPollRepeat)
}

// Idle switches the reader into idle mode, awaiting commands. Mode
// messages have no reply.
func (d *Device) Idle() error {
	return d.writeMode(frame.TagIdle)
}

// writeMode sends a single byte mode-change message.
func (d *Device) writeMode(tag byte) error {
	debugf("mode change %c", tag)
	if _, err := d.transport.Write([]byte{tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrTransportWrite, err)
	}
	return nil
}

// ReadAnnouncement blocks until the reader announces a card and
// returns its UID. Use it after PollRepeat, or on a transport opened
// read-only where the driver defaults to poll-repeat mode. Any other
// tag on the stream is a protocol fault and desynchronizes the device.
func (d *Device) ReadAnnouncement(ctx context.Context) (UID, error) {
	if d.desynced {
		return UID{}, ErrDesynchronized
	}

	tx := &transaction{state: txAwaitingReply, deadline: d.deadline(ctx)}
	if err := d.armReadTimeout(tx); err != nil {
		// No request is outstanding, so an expired deadline here costs
		// nothing; the stream is still on a frame boundary.
		if errors.Is(err, ErrTimeout) {
			d.desynced = false
		}
		return UID{}, err
	}

	tag, err := readTag(d.transport)
	if err != nil {
		// A timeout before the tag byte leaves the stream on a frame
		// boundary; only a failure past it loses alignment.
		err = d.classifyReadError(err)
		if !errors.Is(err, ErrTimeout) {
			d.desynced = true
		}
		return UID{}, err
	}
	if tag != frame.TagUID {
		d.desynced = true
		return UID{}, fmt.Errorf("%w: got 0x%02X, want announcement", ErrUnexpectedTag, tag)
	}

	uid, err := readAnnouncementBody(d.transport)
	if err != nil {
		d.desynced = true
		return UID{}, d.classifyReadError(err)
	}
	return uid, nil
}

// Resync re-establishes a frame boundary after a timeout or protocol
// fault. It forces the reader to idle mode, then discards stream bytes
// until the configured quiet window passes without data. Re-presenting
// a known UID afterwards (re-poll) is deliberately left to the caller.
func (d *Device) Resync(ctx context.Context) error {
	if err := d.Idle(); err != nil {
		return err
	}

	if err := d.transport.SetReadTimeout(d.config.DrainTimeout); err != nil {
		return fmt.Errorf("setting drain timeout: %w", err)
	}

	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("resync cancelled: %w", ctx.Err())
		default:
		}

		n, err := d.transport.Read(buf)
		if n > 0 {
			debugf("resync discarded %d stale bytes", n)
			continue
		}
		if err != nil {
			if isQuiet(err) {
				d.desynced = false
				debugln("resync complete, stream boundary restored")
				return nil
			}
			return fmt.Errorf("%w: %w", ErrTransportRead, err)
		}
	}
}

// isQuiet reports whether a read error marks the end of the drain: a
// timed-out read with no pending bytes.
func isQuiet(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, io.EOF)
}

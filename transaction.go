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
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/piccworks/go-cr14/internal/frame"
)

// txState tracks a transaction through its lifecycle. Completed and
// Faulted are terminal for the transaction; the device is reusable for
// the next one (unless the fault desynchronized the stream).
type txState int

const (
	txIdle txState = iota
	txSent
	txAwaitingReply
	txDecoding
	txCompleted
	txFaulted
)

// String returns a human readable state name for debug logging.
func (s txState) String() string {
	switch s {
	case txIdle:
		return "idle"
	case txSent:
		return "sent"
	case txAwaitingReply:
		return "awaiting-reply"
	case txDecoding:
		return "decoding"
	case txCompleted:
		return "completed"
	case txFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("txState(%d)", int(s))
	}
}

// Result is the outcome of a completed transaction. Warnings carry the
// soft faults (ErrCountMismatch, ErrWriteVerification, ErrChipFamily)
// that do not fail the transaction; the data actually received is
// always present.
type Result struct {
	Warnings []error
	Blocks   []Block
	UID      UID
}

// HasWarning reports whether any attached warning matches target.
func (r *Result) HasWarning(target error) bool {
	for _, w := range r.Warnings {
		if errors.Is(w, target) {
			return true
		}
	}
	return false
}

// warn attaches a non-nil warning and logs it.
func (r *Result) warn(err error) {
	if err == nil {
		return
	}
	debugf("transaction warning: %v", err)
	r.Warnings = append(r.Warnings, err)
}

// transaction is one request/reply exchange, inclusive of any
// announcement frames absorbed while awaiting the authoritative reply.
type transaction struct {
	req           *Request
	deadline      time.Time
	state         txState
	announcements int
}

// expectedTag returns the reply tag that completes this transaction. A
// poll is answered by a UID announcement; every other operation echoes
// its own tag.
func (t *transaction) expectedTag() byte {
	if t.req.tag == frame.TagPollOnce {
		return frame.TagUID
	}
	return t.req.tag
}

// transition moves the transaction state machine forward.
func (t *transaction) transition(next txState) {
	debugf("transaction %c: %v -> %v", t.req.tag, t.state, next)
	t.state = next
}

// run drives one full transaction: serialize and send the request,
// absorb interleaved announcements, decode the reply, and validate it
// against the request. Faults other than validation mark the stream
// desynchronized on the device.
func (d *Device) run(ctx context.Context, tx *transaction) (*Result, error) {
	if err := d.send(tx); err != nil {
		tx.transition(txFaulted)
		return nil, err
	}

	rep, err := d.awaitReply(ctx, tx)
	if err != nil {
		tx.transition(txFaulted)
		return nil, err
	}

	tx.transition(txDecoding)
	result := d.validate(tx, rep)
	tx.transition(txCompleted)
	return result, nil
}

// send serializes the request and writes it in full before any read is
// attempted.
func (d *Device) send(tx *transaction) error {
	wire := encodeRequest(tx.req)
	debugf("send %c frame (%d bytes)", tx.req.tag, len(wire))
	if _, err := d.transport.Write(wire); err != nil {
		// A partial write leaves the device mid-frame.
		d.desynced = true
		return fmt.Errorf("%w: %w", ErrTransportWrite, err)
	}
	tx.transition(txSent)
	return nil
}

// awaitReply consumes frames until the expected reply tag arrives,
// discarding announcement frames along the way. Announcements are
// forwarded to the configured handler; their multiplicity never
// changes the decoded reply. The loop is iterative so stack depth
// stays bounded regardless of announcement volume.
func (d *Device) awaitReply(ctx context.Context, tx *transaction) (*reply, error) {
	tx.transition(txAwaitingReply)
	expected := tx.expectedTag()

	for {
		if err := d.checkCancelled(ctx, tx); err != nil {
			return nil, err
		}
		if err := d.armReadTimeout(tx); err != nil {
			return nil, err
		}

		tag, err := readTag(d.transport)
		if err != nil {
			d.desynced = true
			return nil, d.classifyReadError(err)
		}

		switch {
		case tag == expected:
			rep, err := readReplyBody(d.transport, tag)
			if err != nil {
				d.desynced = true
				return nil, d.classifyReadError(err)
			}
			return rep, nil

		case tag == frame.TagUID:
			uid, err := readAnnouncementBody(d.transport)
			if err != nil {
				d.desynced = true
				return nil, d.classifyReadError(err)
			}
			d.announce(uid)
			tx.announcements++
			if d.config.MaxAnnouncements > 0 && tx.announcements > d.config.MaxAnnouncements {
				d.desynced = true
				return nil, fmt.Errorf("%w: %d announcements while awaiting %c reply",
					ErrAnnouncementFlood, tx.announcements, expected)
			}

		default:
			d.desynced = true
			return nil, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrUnexpectedTag, tag, expected)
		}
	}
}

// validate checks the decoded reply against the request and assembles
// the result. Count and echo mismatches complete the transaction with
// the data actually received; they are reported as warnings, never
// retried.
func (d *Device) validate(tx *transaction, rep *reply) *Result {
	result := &Result{}

	if rep.tag == frame.TagUID {
		result.UID = rep.uid
		result.warn(CheckChipFamily(rep.uid))
		return result
	}

	result.Blocks = rep.blocks

	if tx.req.multi() && rep.count != len(tx.req.Addresses) {
		result.warn(fmt.Errorf("%w: got %d blocks, requested %d",
			ErrCountMismatch, rep.count, len(tx.req.Addresses)))
	}

	if tx.req.write() {
		result.warn(verifyEcho(tx.req.Data, rep.blocks))
	}

	return result
}

// verifyEcho compares the data echoed by a write reply byte for byte
// against what was sent, positionally. Blocks missing from a short
// reply are already covered by the count warning.
func verifyEcho(sent, echoed []Block) error {
	n := len(sent)
	if len(echoed) < n {
		n = len(echoed)
	}
	for i := 0; i < n; i++ {
		if !bytes.Equal(sent[i][:], echoed[i][:]) {
			return fmt.Errorf("%w: block %d echoed %s, wrote %s",
				ErrWriteVerification, i, echoed[i], sent[i])
		}
	}
	return nil
}

// checkCancelled handles advisory cancellation. The request is already
// on the wire, so abandoning the wait forfeits stream alignment.
func (d *Device) checkCancelled(ctx context.Context, tx *transaction) error {
	select {
	case <-ctx.Done():
		if tx.state != txIdle {
			d.desynced = true
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return fmt.Errorf("transaction cancelled: %w", ctx.Err())
	default:
		return nil
	}
}

// armReadTimeout points the transport read timeout at the transaction
// deadline. A zero deadline blocks indefinitely.
func (d *Device) armReadTimeout(tx *transaction) error {
	if tx.deadline.IsZero() {
		return d.transport.SetReadTimeout(0)
	}
	remaining := time.Until(tx.deadline)
	if remaining <= 0 {
		d.desynced = true
		return fmt.Errorf("%w: transaction deadline reached", ErrTimeout)
	}
	if err := d.transport.SetReadTimeout(remaining); err != nil {
		return fmt.Errorf("setting read timeout: %w", err)
	}
	return nil
}

// classifyReadError folds the various transport timeout shapes into
// ErrTimeout and leaves everything else as-is.
func (d *Device) classifyReadError(err error) error {
	if errors.Is(err, ErrTimeout) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) {
		if !errors.Is(err, ErrTimeout) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
	}
	return err
}

// announce forwards an absorbed announcement to the configured
// handler, if any.
func (d *Device) announce(uid UID) {
	debugf("absorbed announcement for %s", uid)
	if d.onAnnouncement != nil {
		d.onAnnouncement(uid)
	}
}

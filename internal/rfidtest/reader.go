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

// Package rfidtest provides a wire-level simulated CR14 reader for
// tests. VirtualReader implements the cr14.Transport contract and
// replays the character device protocol byte for byte, including the
// unsolicited announcement frames the real driver interleaves with
// replies.
package rfidtest

import (
	"bytes"
	"sync"
	"time"

	cr14 "github.com/piccworks/go-cr14"
	"github.com/piccworks/go-cr14/internal/frame"
)

// VirtualReader simulates the CR14 character device with one card in
// the field. It holds 256 blocks of card memory; block operations
// addressed to the card's UID are answered the way the driver answers
// them, and operations addressed to any other UID go unanswered, which
// a waiting engine observes as a timeout.
type VirtualReader struct {
	// AnnouncementNoise is how many announcement frames to interleave
	// before each block operation reply, simulating a card being
	// re-presented while a command is outstanding.
	AnnouncementNoise int

	// TamperCount, when non-negative, overrides the declared count byte
	// of multi-block replies to simulate firmware miscounts.
	TamperCount int

	// TamperEcho, when set, corrupts the first echoed block of write
	// replies to simulate a failed write-back.
	TamperEcho bool

	uid     cr14.UID
	blocks  [256]cr14.Block
	pending bytes.Buffer
	mu      sync.Mutex
	closed  bool
}

// NewVirtualReader creates a simulated reader with the given card in
// the field.
func NewVirtualReader(uid cr14.UID) *VirtualReader {
	return &VirtualReader{uid: uid, TamperCount: -1}
}

// SetBlock seeds card memory.
func (v *VirtualReader) SetBlock(addr byte, block cr14.Block) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.blocks[addr] = block
}

// BlockAt returns current card memory at addr.
func (v *VirtualReader) BlockAt(addr byte) cr14.Block {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.blocks[addr]
}

// SwapCard replaces the card in the field, keeping card memory.
func (v *VirtualReader) SwapCard(uid cr14.UID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.uid = uid
}

// EmitAnnouncement pushes one unsolicited announcement frame, as the
// reader does spontaneously in poll-repeat mode.
func (v *VirtualReader) EmitAnnouncement() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.writeAnnouncement()
}

func (v *VirtualReader) writeAnnouncement() {
	v.pending.WriteByte(frame.TagUID)
	v.pending.Write(v.uid[:])
}

// Write accepts one host-to-device message and queues the simulated
// reply bytes.
func (v *VirtualReader) Write(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, cr14.ErrTransportClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	switch p[0] {
	case frame.TagPollOnce:
		v.writeAnnouncement()

	case frame.TagPollRepeat, frame.TagIdle:
		// Mode changes have no reply.

	case frame.TagReadBlock:
		if v.matches(p[1 : 1+frame.UIDLength]) {
			v.noise()
			addr := p[1+frame.UIDLength]
			v.pending.WriteByte(frame.TagReadBlock)
			v.pending.Write(v.blocks[addr][:])
		}

	case frame.TagWriteBlock:
		if v.matches(p[1 : 1+frame.UIDLength]) {
			v.noise()
			addr := p[1+frame.UIDLength]
			copy(v.blocks[addr][:], p[2+frame.UIDLength:])
			v.pending.WriteByte(frame.TagWriteBlock)
			v.writeEcho(v.blocks[addr])
		}

	case frame.TagReadMulti:
		if v.matches(p[1 : 1+frame.UIDLength]) {
			v.noise()
			count := int(p[1+frame.UIDLength])
			addrs := p[2+frame.UIDLength : 2+frame.UIDLength+count]
			v.pending.WriteByte(frame.TagReadMulti)
			v.pending.WriteByte(v.declaredCount(count))
			for _, addr := range addrs {
				v.pending.Write(v.blocks[addr][:])
			}
		}

	case frame.TagWriteMulti:
		if v.matches(p[1 : 1+frame.UIDLength]) {
			v.noise()
			count := int(p[1+frame.UIDLength])
			addrs := p[2+frame.UIDLength : 2+frame.UIDLength+count]
			data := p[2+frame.UIDLength+count:]
			v.pending.WriteByte(frame.TagWriteMulti)
			v.pending.WriteByte(v.declaredCount(count))
			for i, addr := range addrs {
				copy(v.blocks[addr][:], data[i*frame.BlockLength:(i+1)*frame.BlockLength])
				if i == 0 {
					v.writeEcho(v.blocks[addr])
				} else {
					v.pending.Write(v.blocks[addr][:])
				}
			}
		}
	}

	return len(p), nil
}

// matches reports whether a request targets the card in the field.
func (v *VirtualReader) matches(wireUID []byte) bool {
	return bytes.Equal(wireUID, v.uid[:])
}

// noise interleaves the configured announcement frames ahead of a
// reply.
func (v *VirtualReader) noise() {
	for i := 0; i < v.AnnouncementNoise; i++ {
		v.writeAnnouncement()
	}
}

// declaredCount applies the count tamper hook.
func (v *VirtualReader) declaredCount(actual int) byte {
	if v.TamperCount >= 0 {
		return byte(v.TamperCount)
	}
	return byte(actual)
}

// writeEcho writes one echoed block, applying the echo tamper hook.
func (v *VirtualReader) writeEcho(block cr14.Block) {
	if v.TamperEcho {
		block[0] ^= 0xFF
	}
	v.pending.Write(block[:])
}

// Read returns pending device-to-host bytes, or a timeout when the
// reader has nothing to say.
func (v *VirtualReader) Read(p []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, cr14.ErrTransportClosed
	}
	if v.pending.Len() == 0 {
		return 0, cr14.NewTimeoutError("Read", "virtual")
	}
	return v.pending.Read(p)
}

// SetReadTimeout is accepted and ignored; the simulated reader never
// blocks.
func (*VirtualReader) SetReadTimeout(time.Duration) error {
	return nil
}

// Close marks the reader closed.
func (v *VirtualReader) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// IsConnected reports whether Close has been called.
func (v *VirtualReader) IsConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed
}

// Type identifies the simulated transport.
func (*VirtualReader) Type() cr14.TransportType {
	return cr14.TransportMock
}

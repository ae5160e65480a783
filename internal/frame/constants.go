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

// Package frame provides wire protocol constants for the CR14 character
// device message format.
package frame

// Message tag bytes. Every frame on the byte stream starts with one of
// these, in either direction.
const (
	TagUID        = 'u' // UID announcement, device to host
	TagPollOnce   = 'p' // one-shot poll request, host to device
	TagPollRepeat = 'P' // switch to poll-repeat mode, host to device
	TagIdle       = 'i' // switch to idle mode, host to device
	TagReadBlock  = 'r' // single block read, both directions
	TagReadMulti  = 'R' // multiple block read, both directions
	TagWriteBlock = 'w' // single block write, both directions
	TagWriteMulti = 'W' // multiple block write, both directions
)

// Field sizes
const (
	UIDLength   = 8 // UID payload, little-endian on the wire
	BlockLength = 4 // one memory block, little-endian on the wire

	// MaxBlockCount is the largest address count a multi-block request
	// can carry. The count field is a single byte and zero is invalid.
	MaxBlockCount = 255
)

// ChipFamilyByte is the most significant presentation-order UID byte
// observed on every supported PICC. A different value is suspicious but
// not fatal.
const ChipFamilyByte = 0xD0

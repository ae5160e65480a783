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
	"encoding/binary"
	"fmt"

	"github.com/piccworks/go-cr14/internal/frame"
)

// Block is one 4-byte memory block in wire (little-endian) order.
// The codec never reinterprets block contents; integer views are
// strictly a caller concern.
type Block [frame.BlockLength]byte

// Uint32 returns the block interpreted as a little-endian counter,
// the layout the SRIX count-down blocks use.
func (b Block) Uint32() uint32 {
	return binary.LittleEndian.Uint32(b[:])
}

// String renders the block bytes in wire order as hex.
func (b Block) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x", b[0], b[1], b[2], b[3])
}

// BlockFromUint32 builds a block holding v in little-endian order.
func BlockFromUint32(v uint32) Block {
	var b Block
	binary.LittleEndian.PutUint32(b[:], v)
	return b
}

// BlockFromBytes builds a block from exactly 4 wire-order bytes.
func BlockFromBytes(data []byte) (Block, error) {
	var b Block
	if len(data) != frame.BlockLength {
		return b, fmt.Errorf("%w: got %d bytes, want %d",
			ErrInvalidPayloadLength, len(data), frame.BlockLength)
	}
	copy(b[:], data)
	return b, nil
}

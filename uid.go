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
	"fmt"
	"strings"

	"github.com/piccworks/go-cr14/internal/frame"
)

// UID is an 8-byte card identifier, stored in wire order (little
// endian, least significant byte first). Presentation order is the
// reverse: the chip family byte comes first.
type UID [frame.UIDLength]byte

// Reversed returns the UID in presentation (big-endian) order.
func (u UID) Reversed() [frame.UIDLength]byte {
	var r [frame.UIDLength]byte
	for i, b := range u {
		r[frame.UIDLength-1-i] = b
	}
	return r
}

// FamilyByte returns the most significant presentation byte, 0xD0 on
// all supported chips.
func (u UID) FamilyByte() byte {
	return u[frame.UIDLength-1]
}

// ManufacturerByte returns the second presentation byte, the ISO
// 7816-6 manufacturer code (0x02 for STMicroelectronics).
func (u UID) ManufacturerByte() byte {
	return u[frame.UIDLength-2]
}

// String renders the UID in presentation order as colon-separated hex,
// e.g. "d0:02:1b:84:a4:1d:53:0a".
func (u UID) String() string {
	r := u.Reversed()
	parts := make([]string, len(r))
	for i, b := range r {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, ":")
}

// IsZero reports whether the UID is all zero bytes.
func (u UID) IsZero() bool {
	return u == UID{}
}

// ParseUID parses a presentation-order UID string as produced by
// String. Separators may be colons, dashes, or absent.
func ParseUID(s string) (UID, error) {
	clean := strings.NewReplacer(":", "", "-", "", " ", "").Replace(s)
	if len(clean) != frame.UIDLength*2 {
		return UID{}, fmt.Errorf("%w: UID %q must be %d bytes", ErrInvalidParameter, s, frame.UIDLength)
	}

	var presentation [frame.UIDLength]byte
	for i := range presentation {
		var b byte
		if _, err := fmt.Sscanf(clean[i*2:i*2+2], "%02x", &b); err != nil {
			return UID{}, fmt.Errorf("%w: UID %q: %w", ErrInvalidParameter, s, err)
		}
		presentation[i] = b
	}

	// Stored order is the wire order, so reverse what was parsed.
	var u UID
	for i, b := range presentation {
		u[frame.UIDLength-1-i] = b
	}
	return u, nil
}

// uidFromWire builds a UID from the 8 wire bytes of a frame payload.
func uidFromWire(payload []byte) UID {
	var u UID
	copy(u[:], payload)
	return u
}

// CheckChipFamily returns an ErrChipFamily warning when the UID does
// not carry the expected family tag byte, nil otherwise. The check is
// advisory; a UID failing it is still usable.
func CheckChipFamily(u UID) error {
	if u.FamilyByte() != frame.ChipFamilyByte {
		return fmt.Errorf("%w: got 0x%02X, want 0x%02X",
			ErrChipFamily, u.FamilyByte(), frame.ChipFamilyByte)
	}
	return nil
}

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
	"errors"
	"testing"
)

func TestUIDPresentation(t *testing.T) {
	t.Parallel()

	if got, want := testUID.String(), "d0:02:1b:84:a4:1d:53:0a"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := testUID.FamilyByte(); got != 0xD0 {
		t.Errorf("FamilyByte() = 0x%02X, want 0xD0", got)
	}
	if got := testUID.ManufacturerByte(); got != 0x02 {
		t.Errorf("ManufacturerByte() = 0x%02X, want 0x02", got)
	}
	if testUID.IsZero() {
		t.Error("IsZero() = true for a populated UID")
	}
	if !(UID{}).IsZero() {
		t.Error("IsZero() = false for the zero UID")
	}
}

func TestParseUID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    UID
		wantErr bool
	}{
		{name: "colon separated", input: "d0:02:1b:84:a4:1d:53:0a", want: testUID},
		{name: "dash separated", input: "D0-02-1B-84-A4-1D-53-0A", want: testUID},
		{name: "bare hex", input: "d0021b84a41d530a", want: testUID},
		{name: "too short", input: "d0:02:1b", wantErr: true},
		{name: "bad hex", input: "d0:02:1b:84:a4:1d:53:zz", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseUID(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParameter) {
					t.Fatalf("ParseUID(%q) error = %v, want ErrInvalidParameter", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUID(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseUID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseUIDRoundTrip(t *testing.T) {
	t.Parallel()

	got, err := ParseUID(testUID.String())
	if err != nil {
		t.Fatalf("ParseUID() error = %v", err)
	}
	if got != testUID {
		t.Errorf("round trip = %v, want %v", got, testUID)
	}
}

func TestCheckChipFamily(t *testing.T) {
	t.Parallel()

	if err := CheckChipFamily(testUID); err != nil {
		t.Errorf("CheckChipFamily() = %v for 0xD0 family", err)
	}

	odd := testUID
	odd[7] = 0xC0
	err := CheckChipFamily(odd)
	if !errors.Is(err, ErrChipFamily) {
		t.Fatalf("CheckChipFamily() = %v, want ErrChipFamily", err)
	}
	if !IsWarning(err) {
		t.Error("chip family fault should classify as a warning")
	}
}

func TestBlockEncoding(t *testing.T) {
	t.Parallel()

	// Counter value 1 on the wire is 01 00 00 00.
	b := BlockFromUint32(1)
	if b != (Block{0x01, 0x00, 0x00, 0x00}) {
		t.Errorf("BlockFromUint32(1) = %v", b)
	}
	if b.Uint32() != 1 {
		t.Errorf("Uint32() = %d, want 1", b.Uint32())
	}

	if _, err := BlockFromBytes([]byte{1, 2}); !errors.Is(err, ErrInvalidPayloadLength) {
		t.Errorf("BlockFromBytes short = %v, want ErrInvalidPayloadLength", err)
	}
}

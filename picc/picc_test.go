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

package picc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cr14 "github.com/piccworks/go-cr14"
)

func mustUID(t *testing.T, s string) cr14.UID {
	t.Helper()
	uid, err := cr14.ParseUID(s)
	require.NoError(t, err)
	return uid
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		uid              string
		wantManufacturer string
		wantModel        string
		wantSerial       string
	}{
		{
			// 0x0D >> 2 matches the SRIX4K prefix; the two prefix bits
			// are masked out of the serial.
			name:             "SRIX4K six bit prefix",
			uid:              "d0:02:0d:84:a4:1d:53:0a",
			wantManufacturer: "ST Microelectronics",
			wantModel:        "SRIX4K",
			wantSerial:       "01:84:a4:1d:53:0a",
		},
		{
			name:             "SRI512 six bit prefix",
			uid:              "d0:02:1a:84:a4:1d:53:0a",
			wantManufacturer: "ST Microelectronics",
			wantModel:        "SRI512",
			wantSerial:       "02:84:a4:1d:53:0a",
		},
		{
			// 0x1F also matches the SRI4K six bit prefix; the exact
			// whole-byte code must win and the serial excludes the byte.
			name:             "ST25TB04K whole byte code",
			uid:              "d0:02:1f:84:a4:1d:53:0a",
			wantManufacturer: "ST Microelectronics",
			wantModel:        "ST25TB04K",
			wantSerial:       "84:a4:1d:53:0a",
		},
		{
			name:             "ST25TB512-AC whole byte code",
			uid:              "d0:02:1b:84:a4:1d:53:0a",
			wantManufacturer: "ST Microelectronics",
			wantModel:        "ST25TB512-AC",
			wantSerial:       "84:a4:1d:53:0a",
		},
		{
			name:             "uncataloged ST model",
			uid:              "d0:02:80:84:a4:1d:53:0a",
			wantManufacturer: "ST Microelectronics",
			wantModel:        "",
			wantSerial:       "80:84:a4:1d:53:0a",
		},
		{
			name:             "uncataloged manufacturer",
			uid:              "d0:99:1f:84:a4:1d:53:0a",
			wantManufacturer: "",
			wantModel:        "",
			wantSerial:       "1f:84:a4:1d:53:0a",
		},
		{
			name:             "NXP has no model catalog",
			uid:              "d0:04:1f:84:a4:1d:53:0a",
			wantManufacturer: "NXP Semiconductors",
			wantModel:        "",
			wantSerial:       "1f:84:a4:1d:53:0a",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := Identify(mustUID(t, tt.uid))

			assert.Equal(t, tt.wantManufacturer, info.Manufacturer)
			assert.Equal(t, tt.wantModel, info.Model)
			assert.Equal(t, tt.wantSerial, info.SerialString())
		})
	}
}

func TestIdentifyKeepsRawCodes(t *testing.T) {
	t.Parallel()

	info := Identify(mustUID(t, "d0:99:42:84:a4:1d:53:0a"))
	assert.Equal(t, byte(0x99), info.ManufacturerCode)
	assert.Equal(t, byte(0x42), info.ModelCode)
}

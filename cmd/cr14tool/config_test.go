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

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cr14tool.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadToolConfigOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
device = "/dev/rfid1"
timeout = "5s"
max_announcements = 16
`)

	cfg, err := loadToolConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/rfid1", cfg.Device)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 16, cfg.MaxNoise)

	// Keys absent from the file keep their defaults.
	defaults := defaultToolConfig()
	assert.Equal(t, defaults.Serial, cfg.Serial)
	assert.Equal(t, defaults.DebugWire, cfg.DebugWire)
}

func TestLoadToolConfigEmptyFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := loadToolConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, defaultToolConfig(), cfg)
}

func TestLoadToolConfigRejectsBadTimeout(t *testing.T) {
	t.Parallel()

	_, err := loadToolConfig(writeConfig(t, `timeout = "fast"`))
	assert.Error(t, err)
}

func TestLoadToolConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := loadToolConfig(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestParseBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		arg     string
		want    []byte
		wantErr bool
	}{
		{name: "single", arg: "7", want: []byte{7}},
		{name: "list", arg: "7,8,9", want: []byte{7, 8, 9}},
		{name: "list with spaces", arg: "7, 8, 9", want: []byte{7, 8, 9}},
		{name: "range", arg: "0-3", want: []byte{0, 1, 2, 3}},
		{name: "hex block", arg: "0xFF", want: []byte{0xFF}},
		{name: "empty", arg: "", wantErr: true},
		{name: "reversed range", arg: "9-7", wantErr: true},
		{name: "out of range", arg: "300", wantErr: true},
		{name: "not a number", arg: "seven", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseBlocks(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDumpBlocksDefault(t *testing.T) {
	t.Parallel()

	// Without -blocks, dump covers blocks 0 through 15.
	addrs, err := parseBlocks(dumpBlocks(""))
	require.NoError(t, err)
	require.Len(t, addrs, 16)
	assert.Equal(t, byte(0), addrs[0])
	assert.Equal(t, byte(15), addrs[15])

	// An explicit selection is untouched.
	assert.Equal(t, "7,8", dumpBlocks("7,8"))
}

func TestParseData(t *testing.T) {
	t.Parallel()

	blocks, err := parseData("06000000deadbeef", 2)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, uint32(6), blocks[0].Uint32())
	assert.Equal(t, "deadbeef", blocks[1].String())

	_, err = parseData("0600", 1)
	assert.Error(t, err, "short data")

	_, err = parseData("zz000000", 1)
	assert.Error(t, err, "bad hex")
}

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

package cr14_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cr14 "github.com/piccworks/go-cr14"
	"github.com/piccworks/go-cr14/internal/rfidtest"
)

var cardUID = cr14.UID{0x0A, 0x53, 0x1D, 0xA4, 0x84, 0x1B, 0x02, 0xD0}

func newSession(t *testing.T, reader *rfidtest.VirtualReader) *cr14.Device {
	t.Helper()
	device, err := cr14.New(reader, cr14.WithTimeout(200*time.Millisecond))
	require.NoError(t, err)
	return device
}

func TestSessionWriteThenReadBack(t *testing.T) {
	t.Parallel()

	reader := rfidtest.NewVirtualReader(cardUID)
	device := newSession(t, reader)

	uid, err := device.Poll()
	require.NoError(t, err)
	require.Equal(t, cardUID, uid)

	data := []cr14.Block{
		cr14.BlockFromUint32(0xDEADBEEF),
		cr14.BlockFromUint32(0x00C0FFEE),
	}
	result, err := device.WriteBlocks(uid, []byte{7, 8}, data)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	result, err = device.ReadBlocks(uid, []byte{7, 8})
	require.NoError(t, err)
	require.Len(t, result.Blocks, 2)
	assert.Equal(t, uint32(0xDEADBEEF), result.Blocks[0].Uint32())
	assert.Equal(t, uint32(0x00C0FFEE), result.Blocks[1].Uint32())

	// Memory persists on the simulated card.
	assert.Equal(t, data[0], reader.BlockAt(7))
	assert.Equal(t, data[1], reader.BlockAt(8))
}

func TestSessionToleratesAnnouncementNoise(t *testing.T) {
	t.Parallel()

	reader := rfidtest.NewVirtualReader(cardUID)
	reader.AnnouncementNoise = 3
	reader.SetBlock(5, cr14.BlockFromUint32(42))

	var announced int
	device, err := cr14.New(reader,
		cr14.WithTimeout(200*time.Millisecond),
		cr14.WithAnnouncementHandler(func(cr14.UID) { announced++ }))
	require.NoError(t, err)

	block, err := device.ReadBlock(cardUID, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), block.Uint32())
	assert.Equal(t, 3, announced)
	assert.False(t, device.Desynchronized())
}

func TestSessionWrongUIDTimesOut(t *testing.T) {
	t.Parallel()

	reader := rfidtest.NewVirtualReader(cardUID)
	device := newSession(t, reader)

	other := cardUID
	other[0] ^= 0xFF
	_, err := device.ReadBlock(other, 5)
	require.ErrorIs(t, err, cr14.ErrTimeout)
	assert.True(t, device.Desynchronized())
}

func TestSessionTamperedEchoWarns(t *testing.T) {
	t.Parallel()

	reader := rfidtest.NewVirtualReader(cardUID)
	reader.TamperEcho = true
	device := newSession(t, reader)

	result, err := device.WriteBlock(cardUID, 7, []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.True(t, result.HasWarning(cr14.ErrWriteVerification))
}

func TestSessionTamperedCountWarns(t *testing.T) {
	t.Parallel()

	reader := rfidtest.NewVirtualReader(cardUID)
	reader.TamperCount = 1
	device := newSession(t, reader)

	// The reader declares one block but was asked for two. The engine
	// completes on the declared count and reports the mismatch.
	result, err := device.ReadBlocks(cardUID, []byte{7, 8})
	require.NoError(t, err)
	assert.True(t, result.HasWarning(cr14.ErrCountMismatch))
	assert.Len(t, result.Blocks, 1)
}

func TestSessionEraseBlocks(t *testing.T) {
	t.Parallel()

	reader := rfidtest.NewVirtualReader(cardUID)
	reader.SetBlock(7, cr14.BlockFromUint32(0xDEADBEEF))
	device := newSession(t, reader)

	blank := cr14.Block{0xFF, 0xFF, 0xFF, 0xFF}
	result, err := device.WriteBlock(cardUID, 7, blank[:])
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, blank, reader.BlockAt(7))
}

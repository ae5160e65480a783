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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDevice pairs a fresh mock transport with a device using a
// short deadline, so faulted paths fail fast.
func newTestDevice(t *testing.T, opts ...Option) (*Device, *MockTransport) {
	t.Helper()
	mock := NewMockTransport()
	opts = append([]Option{WithTimeout(250 * time.Millisecond)}, opts...)
	device, err := New(mock, opts...)
	require.NoError(t, err)
	return device, mock
}

func queueBlocksReply(mock *MockTransport, tag byte, count int, blocks ...Block) {
	reply := []byte{tag, byte(count)}
	for _, b := range blocks {
		reply = append(reply, b[:]...)
	}
	mock.QueueBytes(reply)
}

func TestPollReturnsAnnouncedUID(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	mock.QueueAnnouncement(testUID)

	uid, err := device.Poll()
	require.NoError(t, err)
	assert.Equal(t, testUID, uid)
	assert.Equal(t, []byte{'p'}, mock.Written())
	assert.False(t, device.Desynchronized())
}

func TestPollAttachesChipFamilyWarning(t *testing.T) {
	t.Parallel()

	odd := testUID
	odd[7] = 0xC0

	device, mock := newTestDevice(t)
	mock.QueueAnnouncement(odd)

	result, err := device.Execute(PollRequest())
	require.NoError(t, err)
	assert.Equal(t, odd, result.UID)
	assert.True(t, result.HasWarning(ErrChipFamily))
	assert.False(t, device.Desynchronized())
}

func TestReadBlocksAlignsWithAddressOrder(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	queueBlocksReply(mock, 'R', 2,
		Block{0x01, 0x00, 0x00, 0x00},
		Block{0x02, 0x00, 0x00, 0x00})

	result, err := device.ReadBlocks(testUID, []byte{5, 6})
	require.NoError(t, err)
	require.Len(t, result.Blocks, 2)
	assert.Equal(t, uint32(1), result.Blocks[0].Uint32())
	assert.Equal(t, uint32(2), result.Blocks[1].Uint32())
	assert.Empty(t, result.Warnings)
}

func TestAnnouncementNoiseDoesNotChangeOutcome(t *testing.T) {
	t.Parallel()

	want := Block{0xDE, 0xAD, 0xBE, 0xEF}

	for _, noise := range []int{0, 1, 5} {
		noise := noise
		t.Run(map[int]string{0: "none", 1: "one", 5: "several"}[noise], func(t *testing.T) {
			t.Parallel()

			var seen []UID
			device, mock := newTestDevice(t, WithAnnouncementHandler(func(uid UID) {
				seen = append(seen, uid)
			}))

			for i := 0; i < noise; i++ {
				mock.QueueAnnouncement(testUID)
			}
			mock.QueueBytes(append([]byte{'r'}, want[:]...))

			block, err := device.ReadBlock(testUID, 3)
			require.NoError(t, err)
			assert.Equal(t, want, block)
			assert.Len(t, seen, noise)
			assert.False(t, device.Desynchronized())
		})
	}
}

func TestPollIsCompletedByFirstAnnouncement(t *testing.T) {
	t.Parallel()

	// A poll's reply is itself a 'u' frame, so the first announcement
	// completes it and a second stays queued for the next transaction.
	other := testUID
	other[0] = 0x42

	device, mock := newTestDevice(t)
	mock.QueueAnnouncement(testUID)
	mock.QueueAnnouncement(other)

	uid, err := device.Poll()
	require.NoError(t, err)
	assert.Equal(t, testUID, uid)

	uid, err = device.Poll()
	require.NoError(t, err)
	assert.Equal(t, other, uid)
}

func TestAnnouncementFloodFaults(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t, WithMaxAnnouncements(2))
	for i := 0; i < 3; i++ {
		mock.QueueAnnouncement(testUID)
	}
	mock.QueueBytes([]byte{'r', 0, 0, 0, 0})

	_, err := device.ReadBlock(testUID, 3)
	require.ErrorIs(t, err, ErrAnnouncementFlood)
	assert.True(t, device.Desynchronized())
}

func TestCountMismatchCompletesWithWarning(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	// Asked for blocks 7 and 8; the reader declares three blocks.
	queueBlocksReply(mock, 'R', 3,
		Block{0x01, 0x00, 0x00, 0x00},
		Block{0x02, 0x00, 0x00, 0x00},
		Block{0x03, 0x00, 0x00, 0x00})

	result, err := device.ReadBlocks(testUID, []byte{7, 8})
	require.NoError(t, err)
	assert.True(t, result.HasWarning(ErrCountMismatch))
	assert.Len(t, result.Blocks, 3)
	assert.False(t, device.Desynchronized())
}

func TestShortCountCompletesWithWarning(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	queueBlocksReply(mock, 'R', 1, Block{0x01, 0x00, 0x00, 0x00})

	result, err := device.ReadBlocks(testUID, []byte{7, 8})
	require.NoError(t, err)
	assert.True(t, result.HasWarning(ErrCountMismatch))
	assert.Len(t, result.Blocks, 1)
}

func TestWriteEchoVerification(t *testing.T) {
	t.Parallel()

	data := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	t.Run("faithful echo", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.QueueBytes(append([]byte{'w'}, data...))

		result, err := device.WriteBlock(testUID, 7, data)
		require.NoError(t, err)
		assert.Empty(t, result.Warnings)
	})

	t.Run("echo mismatch is a warning", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.QueueBytes([]byte{'w', 0xAA, 0xBB, 0xCC, 0x00})

		result, err := device.WriteBlock(testUID, 7, data)
		require.NoError(t, err)
		assert.True(t, result.HasWarning(ErrWriteVerification))
		assert.False(t, device.Desynchronized())
	})

	t.Run("multi write compares positionally", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		sent := []Block{{1, 2, 3, 4}, {5, 6, 7, 8}}
		queueBlocksReply(mock, 'W', 2, sent[0], Block{5, 6, 7, 9})

		result, err := device.WriteBlocks(testUID, []byte{7, 8}, sent)
		require.NoError(t, err)
		assert.True(t, result.HasWarning(ErrWriteVerification))
	})
}

func TestUnexpectedTagDesynchronizes(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	mock.QueueBytes([]byte{'x', 1, 2, 3, 4})

	_, err := device.ReadBlock(testUID, 3)
	require.ErrorIs(t, err, ErrUnexpectedTag)
	require.True(t, device.Desynchronized())

	// Every transaction is refused until an explicit resync.
	_, err = device.Poll()
	assert.ErrorIs(t, err, ErrDesynchronized)
	_, err = device.ReadBlock(testUID, 3)
	assert.ErrorIs(t, err, ErrDesynchronized)
}

func TestMismatchedReplyTagDesynchronizes(t *testing.T) {
	t.Parallel()

	// A well-formed reply to a different operation is still a fault for
	// the outstanding one.
	device, mock := newTestDevice(t)
	mock.QueueBytes([]byte{'w', 1, 2, 3, 4})

	_, err := device.ReadBlock(testUID, 3)
	require.ErrorIs(t, err, ErrUnexpectedTag)
	assert.True(t, device.Desynchronized())
}

func TestTruncatedReplyDesynchronizes(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	// Declared two blocks, delivered five bytes. The engine times out
	// mid-frame waiting for the rest.
	mock.QueueBytes([]byte{'R', 2, 0x01, 0x00, 0x00})

	_, err := device.ReadBlocks(testUID, []byte{7, 8})
	require.ErrorIs(t, err, ErrTimeout)
	assert.True(t, device.Desynchronized())
}

func TestTimeoutDesynchronizesUntilResync(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	_, err := device.ReadBlock(testUID, 3)
	require.ErrorIs(t, err, ErrTimeout)
	require.True(t, device.Desynchronized())
	assert.True(t, IsRetryable(err))

	_, err = device.Poll()
	require.ErrorIs(t, err, ErrDesynchronized)

	require.NoError(t, device.Resync(context.Background()))
	assert.False(t, device.Desynchronized())

	// Resync forces idle mode before draining.
	written := mock.Written()
	assert.Equal(t, byte('i'), written[len(written)-1])

	mock.QueueAnnouncement(testUID)
	uid, err := device.Poll()
	require.NoError(t, err)
	assert.Equal(t, testUID, uid)
}

func TestResyncDiscardsStaleBytes(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	mock.QueueBytes([]byte{'x'})

	_, err := device.ReadBlock(testUID, 3)
	require.ErrorIs(t, err, ErrUnexpectedTag)

	// Leftover mid-frame garbage from the fault.
	mock.QueueBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	require.NoError(t, device.Resync(context.Background()))

	// The stale bytes are gone; a clean reply decodes normally.
	mock.QueueBytes([]byte{'r', 1, 2, 3, 4})
	block, err := device.ReadBlock(testUID, 3)
	require.NoError(t, err)
	assert.Equal(t, Block{1, 2, 3, 4}, block)
}

func TestExecuteRejectsNilRequest(t *testing.T) {
	t.Parallel()

	device, _ := newTestDevice(t)
	_, err := device.Execute(nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

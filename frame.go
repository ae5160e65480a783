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
	"fmt"
	"io"

	"github.com/piccworks/go-cr14/internal/frame"
)

// encodeRequest serializes a request frame. Layouts:
//
//	p
//	r <uid[8]> <addr>
//	R <uid[8]> <count> <addr>...
//	w <uid[8]> <addr> <data[4]>
//	W <uid[8]> <count> <addr>... <data[4]>...
//
// All multi-byte fields except block data are single bytes; UIDs and
// block data are little-endian.
func encodeRequest(r *Request) []byte {
	switch r.tag {
	case frame.TagPollOnce:
		return []byte{frame.TagPollOnce}

	case frame.TagReadBlock:
		buf := make([]byte, 0, 1+frame.UIDLength+1)
		buf = append(buf, frame.TagReadBlock)
		buf = append(buf, r.UID[:]...)
		return append(buf, r.Addresses[0])

	case frame.TagWriteBlock:
		buf := make([]byte, 0, 1+frame.UIDLength+1+frame.BlockLength)
		buf = append(buf, frame.TagWriteBlock)
		buf = append(buf, r.UID[:]...)
		buf = append(buf, r.Addresses[0])
		return append(buf, r.Data[0][:]...)

	case frame.TagReadMulti:
		buf := make([]byte, 0, 1+frame.UIDLength+1+len(r.Addresses))
		buf = append(buf, frame.TagReadMulti)
		buf = append(buf, r.UID[:]...)
		buf = append(buf, byte(len(r.Addresses)))
		return append(buf, r.Addresses...)

	case frame.TagWriteMulti:
		buf := make([]byte, 0,
			1+frame.UIDLength+1+len(r.Addresses)+len(r.Data)*frame.BlockLength)
		buf = append(buf, frame.TagWriteMulti)
		buf = append(buf, r.UID[:]...)
		buf = append(buf, byte(len(r.Addresses)))
		buf = append(buf, r.Addresses...)
		for _, block := range r.Data {
			buf = append(buf, block[:]...)
		}
		return buf

	default:
		// Builders cannot produce any other tag.
		panic(fmt.Sprintf("cr14: cannot encode tag %q", r.tag))
	}
}

// reply is a single decoded device-to-host frame.
type reply struct {
	blocks []Block
	uid    UID
	tag    byte
	count  int
}

// readTag reads exactly the one tag byte that starts every frame.
func readTag(r io.Reader) (byte, error) {
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return 0, fmt.Errorf("reading frame tag: %w", err)
	}
	return tag[0], nil
}

// readAnnouncementBody consumes the fixed 8-byte UID payload that
// follows a 'u' tag.
func readAnnouncementBody(r io.Reader) (UID, error) {
	var payload [frame.UIDLength]byte
	if _, err := io.ReadFull(r, payload[:]); err != nil {
		return UID{}, fmt.Errorf("reading announcement payload: %w", mapShortRead(err))
	}
	return uidFromWire(payload[:]), nil
}

// readReplyBody consumes and decodes the body of a reply frame whose
// tag has already been read. The length is fully determined by the
// tag: single block replies carry 4 bytes, multi-block replies carry a
// count byte followed by count blocks. Nothing past the identified
// frame is read.
func readReplyBody(r io.Reader, tag byte) (*reply, error) {
	rep := &reply{tag: tag}

	switch tag {
	case frame.TagUID:
		uid, err := readAnnouncementBody(r)
		if err != nil {
			return nil, err
		}
		rep.uid = uid
		return rep, nil

	case frame.TagReadBlock, frame.TagWriteBlock:
		var data [frame.BlockLength]byte
		if _, err := io.ReadFull(r, data[:]); err != nil {
			return nil, fmt.Errorf("reading block payload: %w", mapShortRead(err))
		}
		rep.count = 1
		rep.blocks = []Block{data}
		return rep, nil

	case frame.TagReadMulti, frame.TagWriteMulti:
		var count [1]byte
		if _, err := io.ReadFull(r, count[:]); err != nil {
			return nil, fmt.Errorf("reading block count: %w", mapShortRead(err))
		}
		rep.count = int(count[0])
		rep.blocks = make([]Block, rep.count)
		for i := range rep.blocks {
			if _, err := io.ReadFull(r, rep.blocks[i][:]); err != nil {
				return nil, fmt.Errorf("reading block %d of %d: %w",
					i+1, rep.count, mapShortRead(err))
			}
		}
		return rep, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnexpectedTag, tag)
	}
}

// mapShortRead converts the io.ReadFull short-read errors into the
// protocol fault the engine reports for malformed frame boundaries.
// Transport errors (including timeouts) pass through untouched.
func mapShortRead(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrTruncatedFrame, err)
	}
	return err
}

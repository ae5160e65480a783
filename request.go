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

	"github.com/piccworks/go-cr14/internal/frame"
)

// Request is a validated command frame ready for the wire. Build one
// with the request constructors; a Request that exists is well-formed.
// Requests never touch the transport themselves.
type Request struct {
	UID       UID
	Addresses []byte
	Data      []Block
	tag       byte
}

// Tag returns the frame tag byte this request encodes as. The reply to
// the request carries the same tag.
func (r *Request) Tag() byte {
	return r.tag
}

// multi reports whether the request is a multi-block operation, whose
// reply carries a declared count byte.
func (r *Request) multi() bool {
	return r.tag == frame.TagReadMulti || r.tag == frame.TagWriteMulti
}

// write reports whether the request carries data the reply will echo.
func (r *Request) write() bool {
	return r.tag == frame.TagWriteBlock || r.tag == frame.TagWriteMulti
}

// PollRequest builds a one-shot poll. The reply is a UID announcement
// for the next card entering the field.
func PollRequest() *Request {
	return &Request{tag: frame.TagPollOnce}
}

// ReadBlockRequest builds a single block read. Any address is valid.
func ReadBlockRequest(uid UID, addr byte) *Request {
	return &Request{tag: frame.TagReadBlock, UID: uid, Addresses: []byte{addr}}
}

// WriteBlockRequest builds a single block write. The data must be
// exactly one block (4 bytes), wire order.
func WriteBlockRequest(uid UID, addr byte, data []byte) (*Request, error) {
	block, err := BlockFromBytes(data)
	if err != nil {
		return nil, err
	}
	return &Request{
		tag:       frame.TagWriteBlock,
		UID:       uid,
		Addresses: []byte{addr},
		Data:      []Block{block},
	}, nil
}

// ReadBlocksRequest builds a multi-block read. Addresses must be
// non-empty, at most 255 entries, and unique; block data in the reply
// is aligned positionally with the address order given here.
func ReadBlocksRequest(uid UID, addrs []byte) (*Request, error) {
	if err := validateAddresses(addrs); err != nil {
		return nil, err
	}
	return &Request{
		tag:       frame.TagReadMulti,
		UID:       uid,
		Addresses: append([]byte(nil), addrs...),
	}, nil
}

// WriteBlocksRequest builds a multi-block write. Address constraints
// match ReadBlocksRequest, and exactly one block of data is required
// per address, in address order.
func WriteBlocksRequest(uid UID, addrs []byte, data []Block) (*Request, error) {
	if err := validateAddresses(addrs); err != nil {
		return nil, err
	}
	if len(data) != len(addrs) {
		return nil, fmt.Errorf("%w: %d blocks for %d addresses",
			ErrArityMismatch, len(data), len(addrs))
	}
	return &Request{
		tag:       frame.TagWriteMulti,
		UID:       uid,
		Addresses: append([]byte(nil), addrs...),
		Data:      append([]Block(nil), data...),
	}, nil
}

// validateAddresses enforces the multi-block address constraints the
// wire format cannot express itself.
func validateAddresses(addrs []byte) error {
	if len(addrs) == 0 {
		return ErrNoAddresses
	}
	if len(addrs) > frame.MaxBlockCount {
		return fmt.Errorf("%w: %d addresses, limit is %d",
			ErrTooManyAddresses, len(addrs), frame.MaxBlockCount)
	}
	var seen [256]bool
	for _, addr := range addrs {
		if seen[addr] {
			return fmt.Errorf("%w: block %d addressed twice", ErrDuplicateAddress, addr)
		}
		seen[addr] = true
	}
	return nil
}

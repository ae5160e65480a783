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

/*
Package cr14 provides a pure Go client for CR14 contactless-memory-card
readers exposed as a byte-stream device.

The CR14 is an ISO 14443 type B coupler used with the ST SRI/SRIX and
ST25TB families of contactless memory cards (PICCs). The kernel driver
exposes it as a character device speaking a small tagged message
protocol; this library frames requests, absorbs the unsolicited UID
announcements the device emits whenever a card enters the field, and
decodes the authoritative replies.

Basic usage:

	import (
	    "github.com/piccworks/go-cr14"
	    "github.com/piccworks/go-cr14/transport/chardev"
	)

	transport, err := chardev.Open("/dev/rfid0")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	device, err := cr14.New(transport)
	if err != nil {
	    log.Fatal(err)
	}

	// Wait for a card and read block 7
	uid, err := device.Poll()
	if err != nil {
	    log.Fatal(err)
	}
	block, err := device.ReadBlock(uid, 7)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("card %s block 7 = %d\n", uid, block.Uint32())

Transports:

  - chardev: the character device node created by the kernel driver
  - uart: a serial bridge forwarding the same byte protocol

Announcements:

The reader announces every detected card with an unsolicited UID frame,
including while a command is outstanding. The transaction engine
silently absorbs these while waiting for a reply; install a handler
with WithAnnouncementHandler to observe them, or use the monitor
subpackage for continuous watching.

Error handling:

Validation problems are reported before anything touches the wire.
Malformed or unexpected frames surface as protocol faults and mark the
stream desynchronized; the caller must call Resync before issuing
further transactions. Semantic mismatches in an otherwise well-formed
reply (block count, write echo) complete the transaction and are
reported as warnings on the Result:

	if errors.Is(err, cr14.ErrTimeout) {
	    // stream alignment is gone, re-establish it
	    err = device.Resync(ctx)
	}

Thread safety:

Device operations are not thread-safe. One transaction fully completes
before the next may be issued; callers needing concurrent access must
serialize around a single Device.
*/
package cr14

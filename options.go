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
	"time"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithTimeout sets the default deadline for one transaction. Zero
// blocks indefinitely.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout < 0 {
			return fmt.Errorf("%w: negative timeout", ErrInvalidParameter)
		}
		d.config.Timeout = timeout
		return nil
	}
}

// WithDrainTimeout sets the quiet window Resync waits for when
// flushing a desynchronized stream.
func WithDrainTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: drain timeout must be positive", ErrInvalidParameter)
		}
		d.config.DrainTimeout = timeout
		return nil
	}
}

// WithMaxAnnouncements caps how many announcement frames a single
// transaction absorbs before faulting with ErrAnnouncementFlood. Zero
// removes the cap.
func WithMaxAnnouncements(limit int) Option {
	return func(d *Device) error {
		if limit < 0 {
			return fmt.Errorf("%w: negative announcement limit", ErrInvalidParameter)
		}
		d.config.MaxAnnouncements = limit
		return nil
	}
}

// WithAnnouncementHandler installs an observer for UID announcements
// absorbed while transactions await their replies. Useful for passive
// new-card tracking without terminating the outstanding transaction.
func WithAnnouncementHandler(handler AnnouncementHandler) Option {
	return func(d *Device) error {
		d.onAnnouncement = handler
		return nil
	}
}
